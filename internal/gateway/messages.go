package gateway

import (
	"fmt"

	"github.com/m3rciful/cardbot/core/telegram/format"
)

// Texts sent to users. The bot speaks Uzbek.
const (
	textPrompt      = "Iltimos karta raqamini kiriting:"
	textChecking    = "⏳ Karta tekshirilmoqda..."
	textNotFound    = "❌ Karta topilmadi yoki noto'g'ri raqam."
	textLookupError = "⚠️ Xatolik yuz berdi. Keyinroq urinib ko'ring."
	exampleCard     = "9860120163319797"
	joinButton      = "📢 Kanalga obuna bo'lish"
)

func instructionText(joinURL, title string) string {
	return fmt.Sprintf("❌ Botdan foydalanish uchun kanalimizga obuna bo'ling:\n\n"+
		"👉 <a href=\"%s\">%s</a>\n\n"+
		"✅ Obuna bo'lgach, /start buyrug'ini qaytadan yuboring.",
		format.EscapeHTML(joinURL), format.EscapeHTML(title))
}

func welcomeText(firstName string) string {
	return fmt.Sprintf("Assalomu alaykum <b>%s</b> 👋\n\n"+
		"Men Karta Ma'lumotlarini olib beruvchi botman! 💳\n\n"+
		"Menga karta raqam tashlasangiz bo'ldi.\n\n"+
		"Misol: \n<code>%s</code>",
		format.EscapeHTML(format.Fallback(firstName, "do'stim")), exampleCard)
}

func summaryText(owner, masked, bank, cardType string) string {
	return fmt.Sprintf("💳 <b>Karta ma'lumotlari</b>\n\n"+
		"👤 Egasi: <b>%s</b>\n"+
		"🔢 Raqam: <b>%s</b>\n"+
		"🏦 Bank: <b>%s</b>\n"+
		"📌 Turi: <b>%s</b>",
		format.EscapeHTML(owner), format.EscapeHTML(masked),
		format.EscapeHTML(bank), format.EscapeHTML(cardType))
}
