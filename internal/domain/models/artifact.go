package models

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Artifact is a compiled contract ready to deploy
type Artifact struct {
	// Path is the file the artifact was read from
	Path     string
	ABI      abi.ABI
	Bytecode []byte
	// ContractPath is "<source>:<name>" when the artifact records it
	ContractPath    string
	CompilerVersion string
}

// CreationCode appends ABI-encoded constructor arguments to the bytecode
func (a *Artifact) CreationCode(constructorArgs []byte) []byte {
	code := make([]byte, 0, len(a.Bytecode)+len(constructorArgs))
	code = append(code, a.Bytecode...)
	return append(code, constructorArgs...)
}
