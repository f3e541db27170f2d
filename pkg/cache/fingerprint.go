package cache

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Canonicalize renders input as JSON with every object's keys sorted, so two
// inputs that differ only in field or map ordering produce identical bytes.
func Canonicalize(input interface{}) ([]byte, error) {
	first, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}

	// numbers stay as their literal text so large integers keep every digit
	dec := json.NewDecoder(bytes.NewReader(first))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}

	// encoding/json writes map keys in sorted order
	return json.Marshal(generic)
}

// HashKey returns the hex MD5 of the canonical form of input.
func HashKey(input interface{}) (string, error) {
	canonical, err := Canonicalize(input)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Fingerprint builds a cache key of the form "<kind>:<hash>".
func Fingerprint(kind string, input interface{}) (string, error) {
	h, err := HashKey(input)
	if err != nil {
		return "", err
	}
	return kind + ":" + h, nil
}
