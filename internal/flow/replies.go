package flow

// Fixed candidate-facing texts. Everything not listed here is phrased by the
// reply generator.
const (
	replyReset = "🔄 System zurückgesetzt.\n\nHallo! 👋 Willkommen beim muuuh Recruiting Bot.\n\nWas möchtest du tun?\n1️⃣ Jobs ansehen\n2️⃣ Infos über muuuh erhalten"
	replyMenu  = "Hallo! 👋 \n\nWillkommen im Karriere-Chat von **muuuh!** 🐮\n\nSuchst du einen **Job** 💼 oder möchtest du **Infos** ℹ️?"

	replyJobList    = "Klasse! Hier sind unsere offenen Stellen: 🚀\n\n1️⃣ **(Junior) Conversational AI Developer** 🤖\n2️⃣ **Senior Python Backend Dev** 🐍\n3️⃣ **Trainee Recruiting** 🎓\n\nWelche Position findest du spannend?"
	replyInfo       = "Wir sind **muuuh!** – eine innovative Agentur aus Osnabrück. 🐮\nWir lieben Kommunikation und Technologie.\n\nMöchtest du unsere Jobs sehen? Schreib uns einfach!"
	suffixGreeted   = "\n\n(Möchtest du dir die Jobs anschauen?)"
	replyGreetedHuh = "Entschuldige, ich habe das nicht verstanden. 😅\nGeht es dir um **Jobs** oder **Infos**?"

	suffixJobSelected = "\n\n(Welchen Job meintest du?)"
	replyUnknownJob   = "Das habe ich nicht ganz verstanden. Welche Stelle meinst du? 👇"

	replyNameTooShort = "Bitte gib deinen vollständigen Namen ein."
	replyAskPhone     = "Danke %s! Wie lautet deine **Telefonnummer**?"
	replyAskCV        = "Perfekt! 📱\n\nJetzt brauche ich deinen **Lebenslauf (CV)** als PDF.\nBitte jetzt hochladen! 📎"

	replyCVReceived  = "CV erhalten! ✅\n\nHast du ein **Anschreiben**? (Upload oder schreib 'weiter')"
	replyCVMandatory = "Für eine Bewerbung brauchen wir zwingend deinen **Lebenslauf**. Bitte lade ihn hoch! 🙏"
	replyCVMissing   = "Bitte lade erst deinen Lebenslauf (PDF) hoch! 📄"

	replyAskAvailability = "Alles angekommen! ✅\n\nAb **wann** bist du verfügbar?"
	replyCoverMissing    = "Bitte lade das Anschreiben hoch oder schreibe **weiter**."

	replyAskSalary   = "Notiert. 🗓️\n\nWas ist deine **Gehaltsvorstellung**? (€/Jahr)"
	replyAskSource   = "Wie bist du auf uns **aufmerksam geworden**?"
	replyAskLanguage = "Wie sind deine **Deutschkenntnisse**? (A1-C2)"

	replySummary = "✅ **Vielen Dank, %s!**\n\nDeine Daten wurden erfolgreich übermittelt:\n\n👤 Name: %s\n📞 Tel: %s\n💼 Job: %s\n\nWir prüfen deine Unterlagen und melden uns so schnell wie möglich bei dir! 🚀\n\nDein muuuh Recruiting Team"

	replyAlreadyDone = "Bewerbung ist bereits durch! 👋"
	replyCorrupt     = "Fehler. Neustart..."
)

// Positions offered in the job list.
const (
	JobConversationalAI = "(Junior) Conversational AI Developer"
	JobBackend          = "Senior Backend Dev"
	JobTrainee          = "Trainee Recruiting"
)
