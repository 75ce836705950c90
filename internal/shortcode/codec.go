// Package shortcode converts link row ids to short public tokens and back.
//
// The scheme follows Hashids: the alphabet is shuffled with the salt, a few
// characters are reserved as separators and guards, every number is written
// in the shuffled base with a lottery character derived from a checksum of
// the input, and short results are padded with guards and alphabet halves up
// to the minimum length. Decoding reverses the steps and then re-encodes the
// result, so only canonical tokens are accepted.
//
// On top of that, the codec can append a salt-keyed HMAC tag as a second
// number. Tokens that were not produced with the same salt then fail to
// decode with overwhelming probability, even when they happen to be valid
// Hashids strings.
package shortcode

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

const (
	// DefaultAlphabet is the URL-safe alphabet used for public link tokens.
	DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	// DefaultMinLength is the minimum token length.
	DefaultMinLength = 6
	// DefaultCheckBits is the size of the keyed tag embedded in every token.
	DefaultCheckBits = 24

	// MaxID is the largest id Encode accepts.
	MaxID int64 = math.MaxInt64

	minAlphabetLength = 16
	maxCheckBits      = 32
	separators        = "cfhistuCFHISTU"
	sepDiv            = 3.5
	guardDiv          = 12.0
)

var (
	ErrEmptySalt        = errors.New("shortcode: salt must not be empty")
	ErrInvalidSalt      = errors.New("shortcode: salt must be printable ASCII")
	ErrInvalidAlphabet  = errors.New("shortcode: invalid alphabet")
	ErrInvalidMinLength = errors.New("shortcode: min length must not be negative")
	ErrInvalidCheckBits = errors.New("shortcode: check bits must be between 0 and 32")

	// ErrInvalidID is returned by Encode for ids outside 0..MaxID.
	ErrInvalidID = errors.New("shortcode: id out of range")

	// ErrNotDecodable is returned by Decode for any token that was not
	// produced by Encode under the same configuration.
	ErrNotDecodable = errors.New("shortcode: token not decodable")
)

// Config holds the codec parameters. Encode and Decode only agree when both
// sides use an identical Config.
type Config struct {
	Alphabet  string
	MinLength int
	// Salt must be non-empty printable ASCII.
	Salt string
	// CheckBits is the width of the HMAC tag. Zero yields plain Hashids tokens.
	CheckBits int
}

// DefaultConfig returns the production configuration for the given salt.
func DefaultConfig(salt string) Config {
	return Config{
		Alphabet:  DefaultAlphabet,
		MinLength: DefaultMinLength,
		Salt:      salt,
		CheckBits: DefaultCheckBits,
	}
}

// Codec encodes and decodes tokens. It is immutable after New and safe for
// concurrent use.
type Codec struct {
	alphabet  []byte
	seps      []byte
	guards    []byte
	salt      []byte
	minLength int
	checkBits int

	allowed [256]bool
	isSep   [256]bool
	isGuard [256]bool
}

// New validates cfg and prepares the shuffled alphabet, separators and guards.
func New(cfg Config) (*Codec, error) {
	if cfg.Salt == "" {
		return nil, ErrEmptySalt
	}

	// The shuffle is keyed on salt bytes. Hashids keys on characters, so the
	// two only agree when every character is a single byte.
	if strings.ContainsFunc(cfg.Salt, func(r rune) bool { return r < ' ' || r > '~' }) {
		return nil, ErrInvalidSalt
	}

	if cfg.MinLength < 0 {
		return nil, ErrInvalidMinLength
	}

	if cfg.CheckBits < 0 || cfg.CheckBits > maxCheckBits {
		return nil, ErrInvalidCheckBits
	}

	if err := validateAlphabet(cfg.Alphabet); err != nil {
		return nil, err
	}

	c := &Codec{
		salt:      []byte(cfg.Salt),
		minLength: cfg.MinLength,
		checkBits: cfg.CheckBits,
	}

	alphabet := []byte(cfg.Alphabet)
	for i := range len(alphabet) {
		c.allowed[alphabet[i]] = true
	}

	var seps []byte

	for i := range len(separators) {
		if idx := bytes.IndexByte(alphabet, separators[i]); idx >= 0 {
			seps = append(seps, separators[i])
			alphabet = slices.Delete(alphabet, idx, idx+1)
		}
	}

	shuffle(seps, c.salt)

	if len(seps) == 0 || float64(len(alphabet))/float64(len(seps)) > sepDiv {
		sepsLength := int(math.Ceil(float64(len(alphabet)) / sepDiv))
		if sepsLength == 1 {
			sepsLength++
		}

		if sepsLength > len(seps) {
			diff := sepsLength - len(seps)
			seps = append(seps, alphabet[:diff]...)
			alphabet = alphabet[diff:]
		} else {
			seps = seps[:sepsLength]
		}
	}

	shuffle(alphabet, c.salt)

	guardCount := int(math.Ceil(float64(len(alphabet)) / guardDiv))

	var guards []byte

	if len(alphabet) < 3 {
		guards = seps[:guardCount]
		seps = seps[guardCount:]
	} else {
		guards = alphabet[:guardCount]
		alphabet = alphabet[guardCount:]
	}

	c.alphabet = slices.Clone(alphabet)
	c.seps = slices.Clone(seps)
	c.guards = slices.Clone(guards)

	for _, b := range c.seps {
		c.isSep[b] = true
	}

	for _, b := range c.guards {
		c.isGuard[b] = true
	}

	return c, nil
}

func validateAlphabet(alphabet string) error {
	if len(alphabet) < minAlphabetLength {
		return fmt.Errorf("%w: need at least %d characters, got %d",
			ErrInvalidAlphabet, minAlphabetLength, len(alphabet))
	}

	var seen [256]bool

	for i := range len(alphabet) {
		b := alphabet[i]
		if b <= ' ' || b >= 0x7f {
			return fmt.Errorf("%w: character %q is not printable ASCII", ErrInvalidAlphabet, b)
		}

		if seen[b] {
			return fmt.Errorf("%w: duplicate character %q", ErrInvalidAlphabet, b)
		}

		seen[b] = true
	}

	return nil
}

// MinLength returns the configured minimum token length.
func (c *Codec) MinLength() int {
	return c.minLength
}

// Encode returns the token for id.
func (c *Codec) Encode(id int64) (string, error) {
	if id < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	return string(c.encode(c.numbers(uint64(id)))), nil
}

// Decode returns the id a token was produced from, or ErrNotDecodable.
func (c *Codec) Decode(token string) (int64, error) {
	numbers, ok := c.decode(token)
	if !ok || len(numbers) != c.numberCount() {
		return 0, ErrNotDecodable
	}

	id := numbers[0]
	if id > uint64(MaxID) {
		return 0, ErrNotDecodable
	}

	if c.checkBits > 0 {
		var got, want [8]byte

		binary.BigEndian.PutUint64(got[:], numbers[1])
		binary.BigEndian.PutUint64(want[:], c.tag(id))

		if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
			return 0, ErrNotDecodable
		}
	}

	return int64(id), nil
}

func (c *Codec) numberCount() int {
	if c.checkBits == 0 {
		return 1
	}

	return 2
}

func (c *Codec) numbers(id uint64) []uint64 {
	if c.checkBits == 0 {
		return []uint64{id}
	}

	return []uint64{id, c.tag(id)}
}

// tag is the top checkBits bits of HMAC-SHA256(salt, id).
func (c *Codec) tag(id uint64) uint64 {
	var msg [8]byte

	binary.BigEndian.PutUint64(msg[:], id)

	mac := hmac.New(sha256.New, c.salt)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	return binary.BigEndian.Uint64(sum[:8]) >> (64 - c.checkBits)
}

func (c *Codec) encode(numbers []uint64) []byte {
	var checksum uint64
	for i, n := range numbers {
		checksum += n % uint64(i+100)
	}

	alphabet := slices.Clone(c.alphabet)
	lottery := alphabet[checksum%uint64(len(alphabet))]

	out := make([]byte, 0, max(c.minLength, 16))
	out = append(out, lottery)

	buffer := make([]byte, 0, 1+len(c.salt)+len(alphabet))

	for i, n := range numbers {
		buffer = append(buffer[:0], lottery)
		buffer = append(buffer, c.salt...)
		buffer = append(buffer, alphabet...)
		shuffle(alphabet, buffer[:len(alphabet)])

		start := len(out)
		out = appendDigits(out, n, alphabet)

		if i+1 < len(numbers) {
			n %= uint64(out[start]) + uint64(i)
			out = append(out, c.seps[n%uint64(len(c.seps))])
		}
	}

	if len(out) < c.minLength {
		g := (checksum + uint64(out[0])) % uint64(len(c.guards))
		out = append([]byte{c.guards[g]}, out...)

		if len(out) < c.minLength {
			g = (checksum + uint64(out[2])) % uint64(len(c.guards))
			out = append(out, c.guards[g])
		}
	}

	half := len(alphabet) / 2

	for len(out) < c.minLength {
		shuffle(alphabet, slices.Clone(alphabet))

		padded := make([]byte, 0, len(out)+len(alphabet))
		padded = append(padded, alphabet[half:]...)
		padded = append(padded, out...)
		padded = append(padded, alphabet[:half]...)
		out = padded

		if excess := len(out) - c.minLength; excess > 0 {
			from := excess / 2
			out = out[from : from+c.minLength]
		}
	}

	return out
}

func (c *Codec) decode(token string) ([]uint64, bool) {
	if token == "" {
		return nil, false
	}

	for i := range len(token) {
		if !c.allowed[token[i]] {
			return nil, false
		}
	}

	parts := split(token, &c.isGuard)

	body := parts[0]
	if len(parts) == 2 || len(parts) == 3 {
		body = parts[1]
	}

	if body == "" {
		return nil, false
	}

	lottery := body[0]
	chunks := split(body[1:], &c.isSep)

	alphabet := slices.Clone(c.alphabet)
	buffer := make([]byte, 0, 1+len(c.salt)+len(alphabet))
	numbers := make([]uint64, 0, len(chunks))

	for _, chunk := range chunks {
		buffer = append(buffer[:0], lottery)
		buffer = append(buffer, c.salt...)
		buffer = append(buffer, alphabet...)
		shuffle(alphabet, buffer[:len(alphabet)])

		n, ok := parseDigits(chunk, alphabet)
		if !ok {
			return nil, false
		}

		numbers = append(numbers, n)
	}

	if string(c.encode(numbers)) != token {
		return nil, false
	}

	return numbers, true
}

// shuffle permutes a in place, driven by key. Identical inputs always yield
// the same permutation.
func shuffle(a, key []byte) {
	if len(key) == 0 {
		return
	}

	for i, v, p := len(a)-1, 0, 0; i > 0; i, v = i-1, v+1 {
		v %= len(key)
		n := int(key[v])
		p += n
		j := (n + v + p) % i
		a[i], a[j] = a[j], a[i]
	}
}

func appendDigits(dst []byte, n uint64, alphabet []byte) []byte {
	base := uint64(len(alphabet))

	var buf [64]byte

	i := len(buf)

	for {
		i--
		buf[i] = alphabet[n%base]
		n /= base

		if n == 0 {
			break
		}
	}

	return append(dst, buf[i:]...)
}

func parseDigits(s string, alphabet []byte) (uint64, bool) {
	if s == "" {
		return 0, false
	}

	base := uint64(len(alphabet))

	var n uint64

	for i := range len(s) {
		d := bytes.IndexByte(alphabet, s[i])
		if d < 0 {
			return 0, false
		}

		if n > (math.MaxUint64-uint64(d))/base {
			return 0, false
		}

		n = n*base + uint64(d)
	}

	return n, true
}

// split cuts s at every byte in set, keeping empty fields.
func split(s string, set *[256]bool) []string {
	parts := make([]string, 0, 3)
	start := 0

	for i := range len(s) {
		if set[s[i]] {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}

	return append(parts, s[start:])
}
