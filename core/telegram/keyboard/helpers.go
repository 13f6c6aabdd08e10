package keyboard

import tele "gopkg.in/telebot.v4"

// URLButton returns an inline keyboard with a single link button.
func URLButton(text, url string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.URL(text, url)))
	return markup
}
