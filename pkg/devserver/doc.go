// Package devserver serves a project's build output with live reload.
//
// HTML pages get a small script injected that connects to the websocket hub
// at WebSocketPath. The hub broadcasts "reload" after a rebuild and "error"
// when a task fails to compile, which the page shows as an overlay.
package devserver
