package eval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/value"
)

func evaluateLiteral(req *Request) (any, error) {
	n := req.Expr
	switch n.Kind {
	case jast.KindDecimalInteger, jast.KindHexInteger, jast.KindOctalInteger, jast.KindBinaryInteger:
		return parseIntLiteral(n.Text)
	case jast.KindDecimalFloat, jast.KindHexFloat:
		return parseFloatLiteral(n.Text)
	case jast.KindTrue:
		return true, nil
	case jast.KindFalse:
		return false, nil
	case jast.KindCharacterLiteral:
		return parseCharLiteral(n.Text)
	case jast.KindStringLiteral:
		return parseStringLiteral(n.Text)
	case jast.KindThis:
		if this := req.Context.This(); this != nil {
			return this, nil
		}
	}
	return value.Unknown, nil
}

func parseIntLiteral(text string) (any, error) {
	s := strings.ReplaceAll(text, "_", "")
	long := strings.HasSuffix(s, "l") || strings.HasSuffix(s, "L")
	if long {
		s = s[:len(s)-1]
	}
	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		base, s = 2, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}
	u, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return nil, fmt.Errorf("integer literal %s: %w", text, err)
	}
	if long {
		return int64(u), nil
	}
	if u > 1<<32-1 || (base == 10 && u > 1<<31) {
		return nil, fmt.Errorf("integer literal %s out of range", text)
	}
	return int32(uint32(u)), nil
}

func parseFloatLiteral(text string) (any, error) {
	s := strings.ReplaceAll(text, "_", "")
	single := false
	switch s[len(s)-1] {
	case 'f', 'F':
		single, s = true, s[:len(s)-1]
	case 'd', 'D':
		s = s[:len(s)-1]
	}
	if single {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, fmt.Errorf("float literal %s: %w", text, err)
		}
		return float32(f), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("double literal %s: %w", text, err)
	}
	return f, nil
}

func parseCharLiteral(text string) (any, error) {
	if len(text) < 3 {
		return nil, fmt.Errorf("character literal %s", text)
	}
	r, _, tail, err := strconv.UnquoteChar(text[1:len(text)-1], '\'')
	if err != nil || tail != "" {
		return nil, fmt.Errorf("character literal %s", text)
	}
	return uint16(r), nil
}

func parseStringLiteral(text string) (any, error) {
	if strings.HasPrefix(text, `"""`) {
		body := strings.TrimSuffix(strings.TrimPrefix(text, `"""`), `"""`)
		if i := strings.IndexByte(body, '\n'); i >= 0 {
			body = body[i+1:]
		}
		return body, nil
	}
	s, err := strconv.Unquote(text)
	if err != nil {
		return nil, fmt.Errorf("string literal %s: %w", text, err)
	}
	return s, nil
}
