package models

// Meta-style webhook payload: entries wrap changes, each change carries one
// value, each value carries zero or more messages. Levels that providers
// omit are pointers so a malformed sub-entry can be skipped, not fatal.

type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value *Value `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	Profile ContactProfile `json:"profile"`
	WaID    string         `json:"wa_id"`
}

type ContactProfile struct {
	Name string `json:"name"`
}

type Message struct {
	From        string       `json:"from"`
	ID          string       `json:"id"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *TextContent `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
	Image       *Media       `json:"image,omitempty"`
	Video       *Media       `json:"video,omitempty"`
	Audio       *Media       `json:"audio,omitempty"`
	Document    *Media       `json:"document,omitempty"`
	Sticker     *Media       `json:"sticker,omitempty"`
}

type TextContent struct {
	Body string `json:"body"`
}

type Interactive struct {
	Type        string `json:"type"`
	ButtonReply *Reply `json:"button_reply,omitempty"`
	ListReply   *Reply `json:"list_reply,omitempty"`
}

type Reply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Media struct {
	ID       string `json:"id"`
	Caption  string `json:"caption,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// NormalizedMessage is the flat, provider-agnostic unit handed to routing.
// From and MessageID are always non-empty; the optional groups are set
// according to Type.
type NormalizedMessage struct {
	From        string              `json:"from"`
	MessageID   string              `json:"message_id"`
	Type        string              `json:"type"`
	Text        string              `json:"text,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
	Media       *MediaContent       `json:"media,omitempty"`
}

type InteractiveContent struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

type MediaContent struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Caption string `json:"caption,omitempty"`
}

// Notification is one queued outbound send consumed by the worker runtime.
type Notification struct {
	ID   string `json:"id"`
	To   string `json:"to"`
	Type string `json:"type"`
	Text string `json:"text"`
}
