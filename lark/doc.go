// Package lark provides the core HTTP client for the Lark/Feishu open
// platform: credential resolution (tenant or user access tokens), the
// request gateway that every resource wrapper is built on, the shared
// {code, msg, data} response envelope, and the auto-pagination helper.
//
// Resource wrappers live in the sibling packages (im, docx, bitable, task,
// calendar, wiki) and compose a *Client; none of them keep protocol state
// beyond the caches documented on their own types.
package lark
