package events

import "github.com/PercyRoc/CangFenBao-sub014/core/model"

// DispatchEvent is published once per package when it reaches a terminal
// state, matching the report delivered to the collaborator.
type DispatchEvent struct {
	Report model.PackageReport
}
