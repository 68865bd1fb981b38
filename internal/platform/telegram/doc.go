// Package telegram connects the dialog controller to the Telegram Bot API.
//
// Bot long-polls for updates, routes plain messages and button presses to the
// controller, and sends reminders on behalf of the scheduler. Replies use
// MarkdownV2; answers edit the message whose button was pressed.
package telegram
