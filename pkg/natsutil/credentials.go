/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package natsutil

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/jwt/v2"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

var (
	// ErrNoCredentials is returned when no creds file, JWT and seed, or token is configured.
	ErrNoCredentials = errors.New("no NATS credentials configured")

	errSeedWithoutJWT  = errors.New("both jwt and seed are required for inline credentials")
	errSubjectMismatch = errors.New("user JWT subject does not match seed")
)

// Credentials selects how the session authenticates. CredsFile wins over an
// inline JWT and seed, which win over Token.
type Credentials struct {
	CredsFile string
	JWT       string
	Seed      string
	Token     string
}

// authInfo is what the session learns from the credentials before dialing.
type authInfo struct {
	option    nats.Option
	userKey   string
	expiresAt time.Time
}

func (c Credentials) resolve() (*authInfo, error) {
	switch {
	case c.CredsFile != "":
		return credsFileAuth(c.CredsFile)
	case c.JWT != "" || c.Seed != "":
		if c.JWT == "" || c.Seed == "" {
			return nil, errSeedWithoutJWT
		}

		return inlineAuth(c.JWT, c.Seed)
	case c.Token != "":
		return &authInfo{option: nats.Token(c.Token)}, nil
	default:
		return nil, ErrNoCredentials
	}
}

func credsFileAuth(path string) (*authInfo, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read creds file %s: %w", path, err)
	}

	token, err := jwt.ParseDecoratedJWT(contents)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user JWT from %s: %w", path, err)
	}

	kp, err := nkeys.ParseDecoratedNKey(contents)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user seed from %s: %w", path, err)
	}

	info, err := describe(token, kp)
	if err != nil {
		return nil, err
	}

	info.option = nats.UserCredentials(path)

	return info, nil
}

func inlineAuth(token, seed string) (*authInfo, error) {
	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("invalid user seed: %w", err)
	}

	info, err := describe(token, kp)
	if err != nil {
		return nil, err
	}

	info.option = nats.UserJWTAndSeed(token, seed)

	return info, nil
}

func describe(token string, kp nkeys.KeyPair) (*authInfo, error) {
	defer kp.Wipe()

	claims, err := jwt.DecodeUserClaims(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode user JWT: %w", err)
	}

	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive user public key: %w", err)
	}

	if claims.Subject != pub {
		return nil, fmt.Errorf("%w: %s != %s", errSubjectMismatch, claims.Subject, pub)
	}

	info := &authInfo{userKey: pub}
	if claims.Expires > 0 {
		info.expiresAt = time.Unix(claims.Expires, 0)
	}

	return info, nil
}
