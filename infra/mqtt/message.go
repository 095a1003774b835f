package mqtt

import (
	"encoding/json"
	"fmt"
)

// PackageMessage is the identification event published by the
// camera/scanner collaborator for each recognized package.
type PackageMessage struct {
	PackageID string `json:"package_id"`
	Chute     int    `json:"chute"`
	Timestamp int64  `json:"timestamp"`
}

// ReportMessage is published for every package that reaches a terminal
// state.
type ReportMessage struct {
	PackageID string `json:"package_id"`
	Outcome   string `json:"outcome"`
	Chute     int    `json:"chute"`
	LatencyMS int64  `json:"latency_ms"`
	Timestamp int64  `json:"timestamp"`
}

// StatusMessage is published on every device connectivity transition.
type StatusMessage struct {
	Device    string `json:"device"`
	Connected bool   `json:"connected"`
	Timestamp int64  `json:"timestamp"`
}

// DecodePackageMessage parses and validates an identification payload.
func DecodePackageMessage(payload []byte) (PackageMessage, error) {
	var m PackageMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return PackageMessage{}, fmt.Errorf("decode package message: %w", err)
	}
	if m.PackageID == "" {
		return PackageMessage{}, fmt.Errorf("package message missing package_id")
	}
	return m, nil
}
