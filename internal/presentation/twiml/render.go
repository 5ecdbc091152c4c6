package twiml

import (
	"fmt"
	"strconv"
	"time"

	"github.com/twilio/twilio-go/twiml"

	"donation-server/internal/domain/voice"
)

// ContentType TwiML応答のContent-Type
const ContentType = "text/xml"

// RenderVoice 音声応答をTwiMLに変換する
func RenderVoice(r *voice.Response) (string, error) {
	elements := make([]twiml.Element, 0, len(r.Verbs))
	for _, v := range r.Verbs {
		el, err := voiceElement(v)
		if err != nil {
			return "", err
		}
		elements = append(elements, el)
	}
	return twiml.Voice(elements)
}

// RenderMessage SMS返信をTwiMLに変換する
func RenderMessage(body string) (string, error) {
	return twiml.Messages([]twiml.Element{
		&twiml.MessagingMessage{Body: body},
	})
}

func voiceElement(v voice.Verb) (twiml.Element, error) {
	switch verb := v.(type) {
	case voice.Say:
		return &twiml.VoiceSay{Message: verb.Text, Voice: verb.Voice}, nil
	case voice.Play:
		return &twiml.VoicePlay{Url: verb.URL}, nil
	case voice.Gather:
		children := make([]twiml.Element, 0, len(verb.Children))
		for _, c := range verb.Children {
			switch c.(type) {
			case voice.Say, voice.Play:
			default:
				return nil, fmt.Errorf("unsupported verb inside gather: %T", c)
			}
			el, err := voiceElement(c)
			if err != nil {
				return nil, err
			}
			children = append(children, el)
		}
		return &twiml.VoiceGather{
			Action:        verb.Action,
			Method:        verb.Method,
			NumDigits:     positive(verb.NumDigits),
			FinishOnKey:   verb.FinishOnKey,
			Timeout:       seconds(verb.Timeout),
			InnerElements: children,
		}, nil
	case voice.Redirect:
		return &twiml.VoiceRedirect{Url: verb.URL, Method: verb.Method}, nil
	case voice.Hangup:
		return &twiml.VoiceHangup{}, nil
	default:
		return nil, fmt.Errorf("unsupported verb: %T", v)
	}
}

func positive(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func seconds(d time.Duration) string {
	return positive(int(d / time.Second))
}
