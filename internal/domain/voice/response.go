package voice

import "time"

// Verb 音声応答を構成する命令
type Verb interface {
	verb()
}

// Say テキスト読み上げ
type Say struct {
	Text  string
	Voice string
}

// Play 音声ファイルの再生
type Play struct {
	URL string
}

// Gather キー入力の収集。入力完了またはタイムアウトでActionを呼び出す
type Gather struct {
	NumDigits   int // 0は無制限
	FinishOnKey string
	Timeout     time.Duration
	Action      string
	Method      string
	// Children 入力待ちの間に再生する命令(Say/Playのみ)
	Children []Verb
}

// Redirect 別のアドレスへの遷移
type Redirect struct {
	URL    string
	Method string
}

// Hangup 通話終了
type Hangup struct{}

func (Say) verb()      {}
func (Play) verb()     {}
func (Gather) verb()   {}
func (Redirect) verb() {}
func (Hangup) verb()   {}

// Response 1つの着信イベントに対する応答
type Response struct {
	Verbs []Verb
}

// NewResponse 新しいResponseを作成
func NewResponse() *Response {
	return &Response{}
}

// Say 読み上げを追加
func (r *Response) Say(text string) *Response {
	r.Verbs = append(r.Verbs, Say{Text: text})
	return r
}

// Play 再生を追加
func (r *Response) Play(url string) *Response {
	r.Verbs = append(r.Verbs, Play{URL: url})
	return r
}

// Gather 入力収集を追加
func (r *Response) Gather(g Gather) *Response {
	r.Verbs = append(r.Verbs, g)
	return r
}

// Redirect POSTでの遷移を追加
func (r *Response) Redirect(url string) *Response {
	r.Verbs = append(r.Verbs, Redirect{URL: url, Method: "POST"})
	return r
}

// Append 任意の命令を追加
func (r *Response) Append(v Verb) *Response {
	r.Verbs = append(r.Verbs, v)
	return r
}

// Hangup 通話終了を追加
func (r *Response) Hangup() *Response {
	r.Verbs = append(r.Verbs, Hangup{})
	return r
}

// IsEmpty 命令を含まない(重複イベントへの無応答)かどうかを返す
func (r *Response) IsEmpty() bool {
	return len(r.Verbs) == 0
}

// FirstGather 最初のGatherを返す
func (r *Response) FirstGather() (Gather, bool) {
	for _, v := range r.Verbs {
		if g, ok := v.(Gather); ok {
			return g, true
		}
	}
	return Gather{}, false
}
