package objns

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/dustin/go-humanize"
)

// Separator delimits namespace path components.
const Separator = `\`

// MaxNameLength is the longest name, in UTF-16 code units, a UNICODE_STRING
// can describe.
const MaxNameLength = 32767

const displayLimit = 96

// ErrNameTooLong is wrapped by CheckLength.
var ErrNameTooLong = errors.New("objns: name too long")

// Join appends each name to parent using the namespace separator.
func Join(parent string, names ...string) string {
	var b strings.Builder
	b.WriteString(parent)
	for _, name := range names {
		if !strings.HasSuffix(b.String(), Separator) {
			b.WriteString(Separator)
		}
		b.WriteString(name)
	}
	return b.String()
}

// NestedPath returns base followed by depth repetitions of `\component`.
func NestedPath(base, component string, depth int) string {
	if depth <= 0 {
		return base
	}
	return base + strings.Repeat(Separator+component, depth)
}

// NullString returns a string of n NUL characters.
func NullString(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("\x00", n)
}

// CollisionName returns n NUL characters followed by "A". Names of this
// shape are expected, not verified, to share one bucket of a directory's
// name index.
func CollisionName(n int) string {
	return NullString(n) + "A"
}

// CollisionNames returns count collision names whose NUL runs go from count
// down to 1.
func CollisionNames(count int) []string {
	if count <= 0 {
		return nil
	}
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		names = append(names, CollisionName(count-i))
	}
	return names
}

// RepeatName returns s repeated n times.
func RepeatName(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}

// Itoa formats i as a decimal object name.
func Itoa(i int) string {
	return strconv.Itoa(i)
}

// UTF16Len returns the length of s in UTF-16 code units.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
			continue
		}
		n++
	}
	return n
}

// NameTooLong reports whether name exceeds MaxNameLength.
func NameTooLong(name string) bool {
	// Byte length bounds the UTF-16 length from above.
	if len(name) <= MaxNameLength {
		return false
	}
	return UTF16Len(name) > MaxNameLength
}

// CheckLength returns an error wrapping ErrNameTooLong when name cannot be
// described by a UNICODE_STRING.
func CheckLength(name string) error {
	if !NameTooLong(name) {
		return nil
	}
	return fmt.Errorf("%w: %s is %s UTF-16 units, limit %s", ErrNameTooLong, Display(name),
		humanize.Comma(int64(UTF16Len(name))), humanize.Comma(MaxNameLength))
}

// EncodeUTF16 converts s to UTF-16 without a terminator, keeping embedded
// NUL characters.
func EncodeUTF16(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// DecodeUTF16 converts a counted UTF-16 buffer, embedded NULs included.
func DecodeUTF16(u []uint16) string {
	return string(utf16.Decode(u))
}

// Display renders name for logs and error messages: runs of NUL characters
// are collapsed into a counted marker and long names are truncated.
func Display(name string) string {
	var b strings.Builder
	b.WriteByte('"')
	nulRun, written, skipped := 0, 0, 0
	flush := func() {
		if written >= displayLimit {
			skipped += nulRun
			nulRun = 0
			return
		}
		switch {
		case nulRun == 1:
			b.WriteString(`\0`)
		case nulRun > 1:
			b.WriteString(`\0{` + humanize.Comma(int64(nulRun)) + `}`)
		}
		nulRun = 0
	}
	for _, r := range name {
		if r == 0 {
			nulRun++
			continue
		}
		flush()
		if written >= displayLimit {
			skipped++
			continue
		}
		b.WriteRune(r)
		written++
	}
	flush()
	b.WriteByte('"')
	if skipped > 0 {
		b.WriteString("...(+" + humanize.Comma(int64(skipped)) + " chars)")
	}
	return b.String()
}
