package main

import (
	"fmt"
	"strconv"

	"github.com/scalliony/hexsim/internal/engine"
	"github.com/scalliony/hexsim/internal/hex"
)

func parseProgramID(s string) (engine.ProgramID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("program id: %w", err)
	}
	return engine.ProgramID(n), nil
}

func parseHex(qs, rs string) (int32, int32, error) {
	q, err := strconv.ParseInt(qs, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("q: %w", err)
	}
	r, err := strconv.ParseInt(rs, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("r: %w", err)
	}
	return int32(q), int32(r), nil
}

func hexAt(q, r int32) hex.Hex {
	return hex.New(q, r)
}
