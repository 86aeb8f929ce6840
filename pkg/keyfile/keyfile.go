// SPDX-License-Identifier: Apache-2.0

// Package keyfile inspects and archives a store's .keys file: the armored
// public block followed by the armored secret block of the store key pair.
package keyfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ProtonMail/gopenpgp/v3/crypto"
)

const (
	PublicBlock  = "PGP PUBLIC KEY BLOCK"
	PrivateBlock = "PGP PRIVATE KEY BLOCK"
)

var (
	ErrNoKeyMaterial = errors.New("no armored key material found")
	ErrBlockOrder    = errors.New("key file must hold the public block before the secret block")
	ErrKeyMismatch   = errors.New("public and secret blocks belong to different keys")
)

// Block is one armored block of a key file
type Block struct {
	Type    string
	Armored string
}

// KeyInfo describes the primary key of a block
type KeyInfo struct {
	Fingerprint string
	KeyID       string
	Name        string
	Email       string
	Created     time.Time
	Private     bool
	Locked      bool
}

// Summary describes a validated key file
type Summary struct {
	Public KeyInfo
	Secret *KeyInfo
}

// Fingerprint returns the fingerprint of the key pair
func (s *Summary) Fingerprint() string {
	return s.Public.Fingerprint
}

// Split returns the armored blocks of data in file order
func Split(data []byte) ([]Block, error) {
	var (
		blocks  []Block
		current *Block
		buf     strings.Builder
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if current == nil {
			if kind, ok := armorLine(line, "-----BEGIN "); ok {
				current = &Block{Type: kind}
				buf.Reset()
				buf.WriteString(line + "\n")
			}
			continue
		}

		buf.WriteString(line + "\n")
		if kind, ok := armorLine(line, "-----END "); ok {
			if kind != current.Type {
				return nil, fmt.Errorf("unterminated %s: found END %s", current.Type, kind)
			}
			current.Armored = buf.String()
			blocks = append(blocks, *current)
			current = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		return nil, fmt.Errorf("unterminated %s", current.Type)
	}
	if len(blocks) == 0 {
		return nil, ErrNoKeyMaterial
	}
	return blocks, nil
}

func armorLine(line, prefix string) (string, bool) {
	if !strings.HasPrefix(line, prefix) || !strings.HasSuffix(line, "-----") {
		return "", false
	}
	kind := strings.TrimSuffix(strings.TrimPrefix(line, prefix), "-----")
	return kind, kind != ""
}

// Inspect parses one armored block
func Inspect(block Block) (KeyInfo, error) {
	key, err := crypto.NewKeyFromArmored(block.Armored)
	if err != nil {
		return KeyInfo{}, fmt.Errorf("failed to parse %s: %w", block.Type, err)
	}

	entity := key.GetEntity()
	if entity == nil || entity.PrimaryKey == nil {
		return KeyInfo{}, fmt.Errorf("invalid key structure in %s", block.Type)
	}

	info := KeyInfo{
		Fingerprint: fmt.Sprintf("%X", entity.PrimaryKey.Fingerprint),
		KeyID:       fmt.Sprintf("%X", entity.PrimaryKey.KeyId),
		Created:     entity.PrimaryKey.CreationTime,
		Private:     key.IsPrivate(),
	}

	// Identities is a map; take the lexically first for stable output
	names := make([]string, 0, len(entity.Identities))
	for name := range entity.Identities {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		if uid := entity.Identities[names[0]].UserId; uid != nil {
			info.Name = uid.Name
			info.Email = uid.Email
		}
	}

	if info.Private {
		locked, err := key.IsLocked()
		if err != nil {
			return KeyInfo{}, fmt.Errorf("failed to check key protection: %w", err)
		}
		info.Locked = locked
	}

	return info, nil
}

// Validate checks that data is a well-formed key file: a public block,
// optionally followed by the secret block of the same key
func Validate(data []byte) (*Summary, error) {
	blocks, err := Split(data)
	if err != nil {
		return nil, err
	}
	if blocks[0].Type != PublicBlock {
		return nil, ErrBlockOrder
	}

	public, err := Inspect(blocks[0])
	if err != nil {
		return nil, err
	}
	summary := &Summary{Public: public}

	for _, block := range blocks[1:] {
		if block.Type != PrivateBlock {
			return nil, fmt.Errorf("unexpected %s after the public block", block.Type)
		}
		if summary.Secret != nil {
			return nil, fmt.Errorf("more than one secret block")
		}
		secret, err := Inspect(block)
		if err != nil {
			return nil, err
		}
		if secret.Fingerprint != public.Fingerprint {
			return nil, fmt.Errorf("%w: %s != %s", ErrKeyMismatch, public.Fingerprint, secret.Fingerprint)
		}
		summary.Secret = &secret
	}

	return summary, nil
}

// Load reads and validates the key file at path
func Load(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	summary, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return summary, nil
}
