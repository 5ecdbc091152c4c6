package sms

// 返信文
const (
	msgPromptAmount  = "Please reply with the amount you wish to donate (e.g., 10 or $10)."
	msgPromptCard    = "Thank you! Please reply with your credit card number (no spaces or dashes)."
	msgInvalidCard   = "Invalid credit card number. Please reply with a valid 15 or 16 digit card number."
	msgPromptExpiry  = "Please reply with the expiration date (MMYY)."
	msgInvalidExpiry = "Invalid expiration date. Please reply with 4 digits (MMYY)."
	msgPromptCVV     = "Please reply with the CVV (3 or 4 digits)."
	msgInvalidCVV    = "Invalid CVV. Please reply with 3 or 4 digits."
	msgPromptZIP     = "Please reply with your 5 digit ZIP code."
	msgInvalidZIP    = "Invalid ZIP code. Please reply with your 5 digit ZIP code."
	msgApproved      = "Thank you! Your donation of $%s was successful. Ref: %s"
	msgFailed        = "Sorry, there was an error processing your donation. Please try again."
	msgCancelled     = "Your donation has been cancelled. Reply with an amount to start a new donation."

	referencePlaceholder = "N/A"
)

// FailureReply 処理を続けられなかったときの返信
func FailureReply() *Reply {
	return &Reply{Message: msgFailed}
}
