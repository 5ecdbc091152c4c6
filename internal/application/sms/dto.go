package sms

// InboundMessage 受信したSMS
type InboundMessage struct {
	From string
	Body string
}

// Reply 返信するSMS。1件の受信に対して必ず1件
type Reply struct {
	Message string
}
