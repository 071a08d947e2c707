// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package artmode

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/framebridge/framebridge/internal/models"
)

// Channel-level event names emitted by the TV's WebSocket multiplexer.
const (
	eventChannelConnect      = "ms.channel.connect"
	eventChannelReady        = "ms.channel.ready"
	eventChannelUnauthorized = "ms.channel.unauthorized"
	eventD2DServiceMessage   = "d2d_service_message"
)

// envelope is the outer frame for every outbound art-app request. The inner
// request travels as a JSON-encoded string in Data, not as a nested object.
type envelope struct {
	Method string         `json:"method"`
	Params envelopeParams `json:"params"`
}

type envelopeParams struct {
	Event string `json:"event"`
	To    string `json:"to"`
	Data  string `json:"data"`
}

// inboundFrame is the outer shape of every frame the TV sends.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// MessageKind tags a decoded inbound message.
type MessageKind int

const (
	// KindChannel is a channel-control event (connect, ready, unauthorized).
	KindChannel MessageKind = iota

	// KindResponse is an application message carrying a correlation ID.
	KindResponse

	// KindEvent is an application message without a correlation ID
	// (unsolicited state change).
	KindEvent
)

// Message is the single decoded form of an inbound frame. Frames are decoded
// exactly once, at this boundary; everything downstream works with Message.
type Message struct {
	Kind      MessageKind
	Event     string // channel event name or d2d sub-event name
	RequestID string // correlation ID; empty for events
	ErrorCode string // set when Event == "error"
	Fields    map[string]any
}

// Err returns the TV error for an error reply, nil otherwise.
func (m *Message) Err(op string) error {
	if m.Event != "error" {
		return nil
	}
	code := m.ErrorCode
	if code == "" {
		code = "unknown"
	}
	return &ProtocolError{Op: op, Code: code}
}

// Str returns a string field from the payload, tolerating numeric values.
func (m *Message) Str(key string) string {
	switch v := m.Fields[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Int returns an integer field from the payload. The TV mixes numeric and
// string encodings for the same fields across firmware versions.
func (m *Message) Int(key string) int {
	switch v := m.Fields[key].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}

// NewRequestID returns a fresh correlation ID for an outbound request.
func NewRequestID() string {
	return uuid.New().String()
}

// EncodeRequest wraps an art-app request payload in the channel envelope.
// The payload must already carry its request name and correlation IDs.
func EncodeRequest(payload map[string]any) ([]byte, error) {
	inner, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request payload: %w", err)
	}
	env := envelope{
		Method: "ms.channel.emit",
		Params: envelopeParams{
			Event: "art_app_request",
			To:    "host",
			Data:  string(inner),
		},
	}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return out, nil
}

// BuildRequest assembles a request payload with correlation IDs set. Extra
// fields are merged in; the returned request ID keys the response.
func BuildRequest(name string, extra map[string]any) (map[string]any, string) {
	id := NewRequestID()
	payload := map[string]any{
		"request":    name,
		"id":         id,
		"request_id": id,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return payload, id
}

// DecodeFrame decodes one inbound WebSocket frame into a tagged Message.
func DecodeFrame(data []byte) (*Message, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	if frame.Event != eventD2DServiceMessage {
		msg := &Message{Kind: KindChannel, Event: frame.Event}
		// Channel events carry a payload too; ms.channel.connect holds the
		// pairing token on first connect.
		if len(frame.Data) > 0 {
			fields := make(map[string]any)
			if err := json.Unmarshal(frame.Data, &fields); err == nil {
				msg.Fields = fields
			}
		}
		return msg, nil
	}

	// d2d payloads arrive as a JSON-encoded string on most firmwares and
	// as a plain object on a few.
	raw := frame.Data
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		raw = []byte(asString)
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode d2d payload: %w", err)
	}

	msg := &Message{Event: stringField(fields, "event"), Fields: fields}
	msg.RequestID = stringField(fields, "request_id")
	if msg.RequestID == "" {
		msg.RequestID = stringField(fields, "id")
	}
	if msg.Event == "error" {
		msg.ErrorCode = stringField(fields, "error_code")
	}
	if msg.RequestID != "" {
		msg.Kind = KindResponse
	} else {
		msg.Kind = KindEvent
	}
	return msg, nil
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// ConnInfo is the ephemeral socket endpoint the TV opens for binary
// thumbnail and upload transfers.
type ConnInfo struct {
	IP      string `json:"ip"`
	Port    int    `json:"port"`
	Secured bool   `json:"secured"`
	Key     string `json:"key"`
}

// Addr returns the dialable host:port for the transfer endpoint.
func (c *ConnInfo) Addr() string {
	return fmt.Sprintf("%s:%d", c.IP, c.Port)
}

// ParseConnInfo extracts the transfer endpoint from a response payload.
// The conn_info field is itself double-encoded on most firmwares.
func ParseConnInfo(m *Message) (*ConnInfo, error) {
	raw, ok := m.Fields["conn_info"]
	if !ok {
		return nil, fmt.Errorf("response has no conn_info")
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("re-encode conn_info: %w", err)
		}
		data = encoded
	}

	var loose struct {
		IP      string `json:"ip"`
		Port    any    `json:"port"`
		Secured any    `json:"secured"`
		Key     string `json:"key"`
	}
	if err := json.Unmarshal(data, &loose); err != nil {
		return nil, fmt.Errorf("decode conn_info: %w", err)
	}

	info := &ConnInfo{IP: loose.IP, Key: loose.Key}
	switch p := loose.Port.(type) {
	case float64:
		info.Port = int(p)
	case string:
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("conn_info port %q: %w", p, err)
		}
		info.Port = n
	default:
		return nil, fmt.Errorf("conn_info missing port")
	}
	switch s := loose.Secured.(type) {
	case bool:
		info.Secured = s
	case string:
		info.Secured = s == "true" || s == "True"
	}
	if info.IP == "" || info.Port == 0 {
		return nil, fmt.Errorf("conn_info incomplete: %+v", loose)
	}
	return info, nil
}

// ParseContentList decodes the content_list field of a get_content_list
// response. The list is a JSON-encoded string; each item's origin is
// computed here, at ingestion.
func ParseContentList(m *Message) ([]models.ArtworkItem, error) {
	raw, ok := m.Fields["content_list"]
	if !ok {
		return nil, nil
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("re-encode content_list: %w", err)
		}
		data = encoded
	}

	var entries []map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode content_list: %w", err)
	}

	items := make([]models.ArtworkItem, 0, len(entries))
	for _, e := range entries {
		item := models.ArtworkItem{
			ContentID:       stringField(e, "content_id"),
			CategoryID:      stringField(e, "category_id"),
			MatteID:         stringField(e, "matte_id"),
			PortraitMatteID: stringField(e, "portrait_matte_id"),
			ImageDate:       stringField(e, "image_date"),
		}
		if item.ContentID == "" {
			continue
		}
		item.Origin = models.OriginOf(item.ContentID)
		if w, ok := e["width"].(float64); ok {
			item.Width = int(w)
		}
		if h, ok := e["height"].(float64); ok {
			item.Height = int(h)
		}
		items = append(items, item)
	}
	return items, nil
}

// TransferHeader is the JSON header preceding binary payloads on the
// ephemeral transfer socket.
type TransferHeader struct {
	Num        int    `json:"num"`
	Total      int    `json:"total"`
	FileLength int64  `json:"fileLength"`
	FileID     string `json:"fileID,omitempty"`
	ContentID  string `json:"content_id,omitempty"`
	FileName   string `json:"fileName,omitempty"`
	FileType   string `json:"fileType"`
	SecKey     string `json:"secKey,omitempty"`
	Version    string `json:"version,omitempty"`
}

// ReadTransferHeader reads one length-prefixed JSON header from the transfer
// socket: 4-byte big-endian header length, then the header bytes.
func ReadTransferHeader(r io.Reader) (*TransferHeader, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("read header length: %w", err)
	}
	headerLen := binary.BigEndian.Uint32(lenBuf[:])
	if headerLen == 0 || headerLen > 1<<20 {
		return nil, fmt.Errorf("implausible header length %d", headerLen)
	}

	headerBuf := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	// Numeric header fields arrive as strings on some firmwares.
	loose := make(map[string]any)
	if err := json.Unmarshal(headerBuf, &loose); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}

	h := &TransferHeader{
		FileID:    stringField(loose, "fileID"),
		ContentID: stringField(loose, "content_id"),
		FileName:  stringField(loose, "fileName"),
		FileType:  stringField(loose, "fileType"),
		SecKey:    stringField(loose, "secKey"),
		Version:   stringField(loose, "version"),
	}
	h.Num = looseInt(loose, "num")
	h.Total = looseInt(loose, "total")
	h.FileLength = int64(looseInt(loose, "fileLength"))
	if h.FileLength <= 0 {
		return nil, fmt.Errorf("header missing fileLength")
	}
	return h, nil
}

func looseInt(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// WriteTransferFrame writes one length-prefixed header plus payload to the
// transfer socket, the framing uploads use.
func WriteTransferFrame(w io.Writer, header *TransferHeader, payload []byte) error {
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(headerBytes)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write header length: %w", err)
	}
	if _, err := w.Write(headerBytes); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}
