package crf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	sectionSep = "|--|"
	entrySep   = "|-|"
	fieldSep   = "\t"

	headFile  = "head"
	alphaFile = "alpha"
)

// String renders the model in the single-string text format: the header
// fields, the dictionary entries and the weights as three tab-joined
// sections separated by "|--|". Weights are printed at single precision;
// narrowing from float64 is a deliberate lossy step of the format.
func (m *Model) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(m.Head, fieldSep))
	b.WriteString(sectionSep)
	b.WriteString(strings.Join(dicEntries(m.Dic), fieldSep))
	b.WriteString(sectionSep)
	for i, v := range m.Alpha {
		if i > 0 {
			b.WriteString(fieldSep)
		}
		b.WriteString(formatWeight(v))
	}
	return b.String()
}

func formatWeight(v float64) string {
	return strconv.FormatFloat(float64(float32(v)), 'g', -1, 32)
}

// dicEntries renders "key|-|id" entries sorted by feature ID so that model
// output is deterministic.
func dicEntries(dic map[string]int) []string {
	keys := make([]string, 0, len(dic))
	for k := range dic {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return dic[keys[i]] < dic[keys[j]] })
	entries := make([]string, len(keys))
	for i, k := range keys {
		entries[i] = k + entrySep + strconv.Itoa(dic[k])
	}
	return entries
}

// Load parses the text model format produced by Model.String and validates
// the result. There is no partial or lenient load: any malformed section,
// dictionary entry or weight aborts with a *FormatError.
func Load(src string) (*Model, error) {
	sections := strings.Split(src, sectionSep)
	if len(sections) != 3 {
		return nil, &FormatError{Msg: incompatibleMsg}
	}
	head := strings.Split(sections[0], fieldSep)
	dic, err := parseDic(sections[1])
	if err != nil {
		return nil, err
	}
	alpha, err := parseAlpha(sections[2])
	if err != nil {
		return nil, err
	}
	return NewModel(head, dic, alpha)
}

func parseDic(section string) (map[string]int, error) {
	dic := make(map[string]int)
	if section == "" {
		return dic, nil
	}
	for _, entry := range strings.Split(section, fieldSep) {
		parts := strings.Split(entry, entrySep)
		if len(parts) != 2 {
			return nil, &FormatError{Msg: incompatibleMsg}
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, &FormatError{Msg: incompatibleMsg}
		}
		dic[parts[0]] = id
	}
	return dic, nil
}

func parseAlpha(section string) ([]float64, error) {
	if section == "" {
		return nil, nil
	}
	fields := strings.Split(section, fieldSep)
	alpha := make([]float64, len(fields))
	for i, f := range fields {
		// the format carries single-precision values; parse at 32 bits so
		// text and binary loads of the same model agree exactly
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, formatErrorf("crf: invalid weight %q in model file", f)
		}
		alpha[i] = float64(float32(v))
	}
	return alpha, nil
}

// SaveBinary writes the split binary format: <dir>/head holds one line with
// the header and dictionary sections joined by "|--|" (no weights), and
// <dir>/alpha holds the raw little-endian float32 weights in feature-ID
// order, with no length prefix and no delimiter.
func (m *Model) SaveBinary(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("crf: %w", err)
	}
	head := strings.Join(m.Head, fieldSep) + sectionSep + strings.Join(dicEntries(m.Dic), fieldSep)
	if err := os.WriteFile(filepath.Join(dir, headFile), []byte(head+"\n"), 0o644); err != nil {
		return fmt.Errorf("crf: %w", err)
	}
	buf := make([]byte, 4*len(m.Alpha))
	for i, v := range m.Alpha {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
	}
	if err := os.WriteFile(filepath.Join(dir, alphaFile), buf, 0o644); err != nil {
		return fmt.Errorf("crf: %w", err)
	}
	return nil
}

// LoadBinary reads a model written by SaveBinary. The alpha file carries no
// framing, so the weight count comes from the second header field and
// exactly that many 4-byte values must be present.
func LoadBinary(dir string) (*Model, error) {
	data, err := os.ReadFile(filepath.Join(dir, headFile))
	if err != nil {
		return nil, fmt.Errorf("crf: %w", err)
	}
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	sections := strings.Split(string(line), sectionSep)
	if len(sections) != 2 {
		return nil, &FormatError{Msg: incompatibleMsg}
	}
	head := strings.Split(sections[0], fieldSep)
	dic, err := parseDic(sections[1])
	if err != nil {
		return nil, err
	}
	if len(head) <= headMaxID {
		return nil, formatErrorf("crf: model header missing weight count")
	}
	maxID, err := strconv.Atoi(head[headMaxID])
	if err != nil || maxID < 0 {
		return nil, formatErrorf("crf: invalid weight count %q in model header", head[headMaxID])
	}
	raw, err := os.ReadFile(filepath.Join(dir, alphaFile))
	if err != nil {
		return nil, fmt.Errorf("crf: %w", err)
	}
	if len(raw) != 4*maxID {
		return nil, formatErrorf("crf: alpha file holds %d bytes, want %d", len(raw), 4*maxID)
	}
	alpha := make([]float64, maxID)
	for i := range alpha {
		alpha[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:])))
	}
	return NewModel(head, dic, alpha)
}
