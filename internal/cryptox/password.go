package cryptox

import (
	"crypto/subtle"
	"encoding/hex"

	"github.com/dmitrijs2005/dailyops/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/scrypt"
)

// Password credential algorithm versions.
const (
	// PasswordScrypt: scrypt(N=16384, r=8, p=1), 64-byte hash.
	PasswordScrypt = 1
	// PasswordArgon2id: argon2id(t=1, m=64MiB, p=4), 32-byte hash.
	PasswordArgon2id = 2
)

const passwordSaltSize = 16

// HashPassword returns a fresh hex salt and the hex hash of password using
// the current algorithm version.
func HashPassword(password []byte) (salt, hash string, version int) {
	salt = hex.EncodeToString(common.GenerateRandByteArray(passwordSaltSize))
	key := deriveArgon2(password, []byte(salt))
	defer common.WipeByteArray(key)
	return salt, hex.EncodeToString(key), PasswordArgon2id
}

// VerifyPassword checks password against a stored credential in constant
// time. Unknown versions and malformed hashes never verify.
func VerifyPassword(password []byte, salt, hash string, version int) bool {
	if salt == "" || hash == "" {
		return false
	}
	want, err := hex.DecodeString(hash)
	if err != nil || len(want) == 0 {
		return false
	}

	var got []byte
	switch version {
	case 0, PasswordScrypt:
		// Records written before versioning carry no version and are scrypt.
		got, err = scrypt.Key(password, []byte(salt), 1<<14, 8, 1, len(want))
		if err != nil {
			return false
		}
	case PasswordArgon2id:
		got = deriveArgon2(password, []byte(salt))
	default:
		return false
	}
	defer common.WipeByteArray(got)

	return subtle.ConstantTimeCompare(want, got) == 1
}

func deriveArgon2(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}
