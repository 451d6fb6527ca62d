package bytecode

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Image is the on-disk form of a compiled program: a single top-level
// Chunk plus a format tag, so a host CLI can ship and load precompiled
// bytecode without embedding a compiler (the scanner/parser/compiler
// are external to this module's contract — see the host embedding
// surface). The encoding is gob rather than a hand-rolled binary layout;
// what's preserved from the hand-rolled formats real bytecode VMs use
// (a magic/version header, then sections) is the shape: the Image
// struct carries Magic and Version beside the Chunk, and Decode checks
// them after decoding, so a foreign or stale image is rejected with a
// clear error (data that isn't gob at all fails in the decoder).
type Image struct {
	Magic   string
	Version int
	Main    *Chunk
}

const (
	imageMagic   = "NYRABC"
	imageVersion = 1
)

func init() {
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register("")
	gob.Register(false)
	gob.Register(&Chunk{})
}

// Encode serializes chunk as a loadable image.
func Encode(main *Chunk) ([]byte, error) {
	img := Image{Magic: imageMagic, Version: imageVersion, Main: main}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(img); err != nil {
		return nil, fmt.Errorf("bytecode: encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a previously Encoded image.
func Decode(data []byte) (*Chunk, error) {
	var img Image
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&img); err != nil {
		return nil, fmt.Errorf("bytecode: decode image: %w", err)
	}
	if img.Magic != imageMagic {
		return nil, fmt.Errorf("bytecode: not a nyra image (magic %q)", img.Magic)
	}
	if img.Version != imageVersion {
		return nil, fmt.Errorf("bytecode: unsupported image version %d", img.Version)
	}
	return img.Main, nil
}
