package ivr

import "fmt"

// prompt 音声ファイルと、ファイル未設定時に読み上げる文
type prompt struct {
	audio string
	text  string
}

var (
	promptAmount         = prompt{audio: "MM_2.mp3", text: "Please enter the amount you wish to donate, then press pound."}
	promptYouEntered     = prompt{audio: "MM_3.mp3", text: "You have entered"}
	promptConfirmOptions = prompt{audio: "MM_4.mp3", text: "If this is correct, press 1. To re-enter the amount, press 2."}
	promptCard           = prompt{audio: "MM_5.mp3", text: "Please enter your credit card number, then press pound."}
	promptExpiry         = prompt{audio: "MM_6.mp3", text: "Please enter the four digit expiration date, then press pound."}
	promptCVV            = prompt{audio: "MM_7.mp3", text: "Please enter the security code on your card, then press pound."}
	promptZIP            = prompt{audio: "MM_8.mp3", text: "Please enter your five digit ZIP code."}
	promptApproved       = prompt{audio: "MM_9.mp3", text: "Thank you. Your donation of"}
	promptSuccessful     = prompt{audio: "MM_10.mp3", text: "was successful."}
	promptReference      = prompt{audio: "MM_11.mp3", text: "Your reference number is"}
	promptDeclined       = prompt{audio: "MM_12.mp3", text: "We're sorry, your card was declined."}
	// promptRetryOptions 音声は既定の再試行キー(1)で録音されている
	promptRetryOptions = prompt{audio: "MM_13.mp3", text: "To try a different card, press %s."}
)

// withText 文だけを差し替えたpromptを返す
func (p prompt) withText(args ...interface{}) prompt {
	p.text = fmt.Sprintf(p.text, args...)
	return p
}

// 読み上げ文
const (
	textDollars      = "%d dollars."
	textInvalidInput = "Invalid input."
	textGoodbye      = "Goodbye."
	textFarewell     = "Thank you for calling. Goodbye."
	textUnavailable  = "We're sorry, we were unable to process your donation at this time. Please try again later. Goodbye."
)
