package models

import (
	"fishfollow/internal/service/presentation"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message types pushed to viewers.
const (
	TypePosition = "position"
	TypeAlert    = "alert"
	TypeFrame    = "frame"
)

// PositionMessage carries the rendered view of the tracked image.
type PositionMessage struct {
	Type string `json:"type"`
	presentation.View
}

// AlertMessage is shown to the user with a blocking alert.
type AlertMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// FrameMessage is a base64 JPEG of the video surface.
type FrameMessage struct {
	Type  string `json:"type"`
	Image string `json:"image"`
}

func NewPositionMessage(v presentation.View) ([]byte, error) {
	return json.Marshal(PositionMessage{Type: TypePosition, View: v})
}

func NewAlertMessage(message string) ([]byte, error) {
	return json.Marshal(AlertMessage{Type: TypeAlert, Message: message})
}

func NewFrameMessage(encoded string) ([]byte, error) {
	return json.Marshal(FrameMessage{Type: TypeFrame, Image: encoded})
}
