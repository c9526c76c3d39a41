package channels

import "strings"

// Canned replies shared by every platform. Inbound messages are matched
// against a small command set; anything else gets the fallback.

const welcomeReply = `🎓 *Welcome to EduOpportunity Bot!*

I'm here to help you discover educational opportunities including:
• 🎓 Scholarships
• 📚 Free learning resources
• 🎪 Events and workshops
• 👥 Mentorship programs
• 💰 Funding opportunities

Use /register to get started and /help to see all available commands.`

const helpReply = `🤖 *Available Commands:*

/start - Welcome message
/register - Register as a student
/preferences - Set your preferences
/opportunities - Browse available opportunities
/subscribe <id> - Subscribe to an opportunity
/unsubscribe <id> - Unsubscribe from an opportunity
/help - Show this help message

💡 Set your preferences to get personalized recommendations.`

const registerReply = `📝 *Registration*

Please provide the following information:
1. Your email address
2. Your field of study
3. Your education level
4. Your interests (comma-separated)

Example:
Email: john@example.com
Field: Computer Science
Level: Undergraduate
Interests: AI, Machine Learning, Web Development`

const preferencesReply = `⚙️ *Preferences Settings*

Set your preferences to get personalized recommendations:

interests: AI,ML
field: Computer Science
level: Undergraduate
location: San Francisco
frequency: daily

Reply with your preferences in this format.`

const opportunitiesReply = `🔍 *Browse Opportunities*

Use the web catalog or reply SUBSCRIBE <id> to subscribe to an
opportunity you have been alerted about.`

const fallbackReply = `I'm here to help you find educational opportunities! Use /help to see available commands.`

// CommandReply maps an inbound message to a canned response
func CommandReply(text string) string {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "/start", "start", "hi", "hello":
		return welcomeReply
	case "/help", "help":
		return helpReply
	case "/register", "register":
		return registerReply
	case "/preferences", "preferences":
		return preferencesReply
	case "/opportunities", "opportunities":
		return opportunitiesReply
	default:
		return fallbackReply
	}
}
