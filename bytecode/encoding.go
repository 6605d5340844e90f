package bytecode

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic starts every encoded program.
const Magic = "WADL"

// FormatVersion is the current encoding version.
const FormatVersion = 1

// ErrFormat is returned by Decode for malformed input.
var ErrFormat = errors.New("invalid bytecode format")

func writeByte(buf *bytes.Buffer, b byte) {
	buf.WriteByte(b)
}

func writeBytes(buf *bytes.Buffer, data []byte) {
	buf.Write(data)
}

func writeLEB128(buf *bytes.Buffer, val uint32) {
	for val >= 0x80 {
		buf.WriteByte(byte(val&0x7F) | 0x80)
		val >>= 7
	}
	buf.WriteByte(byte(val & 0x7F))
}

func writeString(buf *bytes.Buffer, s string) {
	writeLEB128(buf, uint32(len(s)))
	writeBytes(buf, []byte(s))
}

// Encode serializes p. Instructions are stored as 5-byte records: the
// opcode followed by the little-endian argument.
func Encode(p *Program) []byte {
	var buf bytes.Buffer
	writeBytes(&buf, []byte(Magic))
	writeByte(&buf, FormatVersion)

	writeLEB128(&buf, uint32(len(p.Strings)))
	for _, s := range p.Strings {
		writeString(&buf, s)
	}

	writeLEB128(&buf, uint32(len(p.Functions)))
	for _, f := range p.Functions {
		writeString(&buf, f.Name)
		writeLEB128(&buf, uint32(f.Entry))
		writeLEB128(&buf, uint32(f.Params))
		writeLEB128(&buf, uint32(f.Locals))
		if f.Returns {
			writeByte(&buf, 1)
		} else {
			writeByte(&buf, 0)
		}
	}

	writeLEB128(&buf, uint32(len(p.Code)))
	var arg [4]byte
	for _, ins := range p.Code {
		writeByte(&buf, byte(ins.Op))
		binary.LittleEndian.PutUint32(arg[:], uint32(ins.Arg))
		writeBytes(&buf, arg[:])
	}
	return buf.Bytes()
}

type decoder struct {
	r   *bufio.Reader
	err error
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
	}
}

func (d *decoder) readCount(what string) int {
	if d.err != nil {
		return 0
	}
	n, err := binary.ReadUvarint(d.r)
	if err != nil || n > 1<<24 {
		d.fail("bad %s", what)
		return 0
	}
	return int(n)
}

func (d *decoder) readByte(what string) byte {
	if d.err != nil {
		return 0
	}
	b, err := d.r.ReadByte()
	if err != nil {
		d.fail("truncated %s", what)
	}
	return b
}

func (d *decoder) readString(what string) string {
	n := d.readCount(what + " length")
	if d.err != nil {
		return ""
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(d.r, data); err != nil {
		d.fail("truncated %s", what)
		return ""
	}
	return string(data)
}

// Decode parses a program produced by Encode.
func Decode(data []byte) (*Program, error) {
	if !bytes.HasPrefix(data, []byte(Magic)) {
		return nil, fmt.Errorf("%w: bad magic", ErrFormat)
	}
	d := &decoder{r: bufio.NewReader(bytes.NewReader(data[len(Magic):]))}
	if v := d.readByte("version"); d.err == nil && v != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, v)
	}

	p := &Program{}
	for i, n := 0, d.readCount("string count"); i < n && d.err == nil; i++ {
		p.Strings = append(p.Strings, d.readString("string"))
	}
	for i, n := 0, d.readCount("function count"); i < n && d.err == nil; i++ {
		f := Function{Name: d.readString("function name")}
		f.Entry = d.readCount("function entry")
		f.Params = d.readCount("function params")
		f.Locals = d.readCount("function locals")
		f.Returns = d.readByte("function flags") == 1
		p.Functions = append(p.Functions, f)
	}

	n := d.readCount("instruction count")
	var record [5]byte
	for i := 0; i < n && d.err == nil; i++ {
		if _, err := io.ReadFull(d.r, record[:]); err != nil {
			d.fail("truncated instruction %d", i)
			break
		}
		op := OpCode(record[0])
		if !op.Valid() {
			d.fail("unknown opcode %d at %d", record[0], i)
			break
		}
		p.Code = append(p.Code, Instruction{Op: op, Arg: int32(binary.LittleEndian.Uint32(record[1:]))})
	}
	if d.err != nil {
		return nil, d.err
	}
	if _, err := d.r.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", ErrFormat)
	}
	return p, nil
}
