package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// BytecodeObject represents bytecode in a compiler artifact.
// Foundry writes {"object": "0x..."}; Hardhat writes the hex string directly.
type BytecodeObject struct {
	Object         string         `json:"object"`
	SourceMap      string         `json:"sourceMap,omitempty"`
	LinkReferences map[string]any `json:"linkReferences,omitempty"`
}

func (b *BytecodeObject) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &b.Object)
	}
	type plain BytecodeObject
	return json.Unmarshal(data, (*plain)(b))
}

// IsEmpty reports whether there is no creation code
func (b BytecodeObject) IsEmpty() bool {
	obj := strings.TrimPrefix(b.Object, "0x")
	return obj == ""
}

// IsLinked reports whether all library placeholders have been resolved
func (b BytecodeObject) IsLinked() bool {
	return !strings.Contains(b.Object, "__")
}

// Bytes decodes the hex bytecode
func (b BytecodeObject) Bytes() ([]byte, error) {
	obj := b.Object
	if !strings.HasPrefix(obj, "0x") {
		obj = "0x" + obj
	}
	code, err := hexutil.Decode(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to decode bytecode: %w", err)
	}
	return code, nil
}

// Artifact represents a Foundry or Hardhat compilation artifact
type Artifact struct {
	ContractName string           `json:"contractName,omitempty"`
	SourceName   string           `json:"sourceName,omitempty"`
	ABI          json.RawMessage  `json:"abi"`
	Bytecode     BytecodeObject   `json:"bytecode"`
	Metadata     ArtifactMetadata `json:"metadata"`

	// Path is the artifact file the entry was loaded from
	Path string `json:"-"`
}

// ArtifactMetadata represents the metadata section of a Foundry artifact
type ArtifactMetadata struct {
	Compiler struct {
		Version string `json:"version"`
	} `json:"compiler"`
	Settings struct {
		CompilationTarget map[string]string `json:"compilationTarget"`
	} `json:"settings"`
}

// CompilationTarget returns the source path and contract name from the metadata, if any
func (a *Artifact) CompilationTarget() (source, name string, ok bool) {
	for s, n := range a.Metadata.Settings.CompilationTarget {
		return s, n, true
	}
	return "", "", false
}

// Key returns the fully qualified "source:Name" identifier, or just the name
// when the source is unknown.
func (a *Artifact) Key() string {
	if a.SourceName == "" {
		return a.ContractName
	}
	return a.SourceName + ":" + a.ContractName
}
