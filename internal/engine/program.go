package engine

import "github.com/scalliony/hexsim/internal/sandbox"

// ProgramID is a dense index assigned to a Program on successful compile;
// never reused, unlike bot.ID.
type ProgramID uint32

// Program is an immutable guest code blob plus its validated sandbox
// template. code is retained alongside the compiled Template (mirroring
// bot.rs's Program{tpl, code} in the original engine) so the template can
// be recompiled against a future sandbox.Engine without re-fetching the
// source, and so debug tooling can inspect the raw bytes.
type Program struct {
	ID       ProgramID
	Code     []byte
	Template *sandbox.Template
}
