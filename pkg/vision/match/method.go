package match

import (
	"strings"
)

// Polarity 最佳匹配的方向
type Polarity int

const (
	// Minimize 值越小越好（平方差族）
	Minimize Polarity = iota
	// Maximize 值越大越好（相关族）
	Maximize
)

func (p Polarity) String() string {
	if p == Minimize {
		return "min"
	}
	return "max"
}

// Method 匹配方法枚举
type Method int

const (
	// SqDiff 平方差
	SqDiff Method = iota
	// SqDiffNormed 归一化平方差
	SqDiffNormed
	// CCorr 互相关
	CCorr
	// CCorrNormed 归一化互相关
	CCorrNormed
	// CCoeff 相关系数（去均值）
	CCoeff
	// CCoeffNormed 归一化相关系数
	CCoeffNormed

	methodCount
)

type methodInfo struct {
	name       string
	polarity   Polarity
	normalized bool
	meanSub    bool
}

var methodTable = [methodCount]methodInfo{
	SqDiff:       {"TM_SQDIFF", Minimize, false, false},
	SqDiffNormed: {"TM_SQDIFF_NORMED", Minimize, true, false},
	CCorr:        {"TM_CCORR", Maximize, false, false},
	CCorrNormed:  {"TM_CCORR_NORMED", Maximize, true, false},
	CCoeff:       {"TM_CCOEFF", Maximize, false, true},
	CCoeffNormed: {"TM_CCOEFF_NORMED", Maximize, true, true},
}

// Methods 返回全部六种方法（固定顺序）
func Methods() []Method {
	return []Method{SqDiff, SqDiffNormed, CCorr, CCorrNormed, CCoeff, CCoeffNormed}
}

// Valid 是否为已知方法
func (m Method) Valid() bool {
	return m >= 0 && m < methodCount
}

func (m Method) String() string {
	if !m.Valid() {
		return "TM_UNKNOWN"
	}
	return methodTable[m].name
}

// Polarity 返回该方法的最佳值方向
func (m Method) Polarity() Polarity {
	if !m.Valid() {
		return Maximize
	}
	return methodTable[m].polarity
}

// Normalized 是否除以幅值项
func (m Method) Normalized() bool {
	return m.Valid() && methodTable[m].normalized
}

// MeanSubtracted 是否先减去均值
func (m Method) MeanSubtracted() bool {
	return m.Valid() && methodTable[m].meanSub
}

// MarshalText 实现 encoding.TextMarshaler
func (m Method) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, ErrUnknownMethod
	}
	return []byte(m.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMethod 解析方法名
// 支持 "TM_CCOEFF_NORMED"、"cv2.TM_CCOEFF_NORMED"、"ccoeff_normed"、"ccoeffnormed" 等写法
func ParseMethod(s string) (Method, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.TrimPrefix(key, "CV2.")
	key = strings.TrimPrefix(key, "CV.")
	key = strings.TrimPrefix(key, "TM_")
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, "-", "")

	for i, info := range methodTable {
		name := strings.ReplaceAll(strings.TrimPrefix(info.name, "TM_"), "_", "")
		if key == name {
			return Method(i), nil
		}
	}
	return 0, &unknownMethodError{name: s}
}

type unknownMethodError struct {
	name string
}

func (e *unknownMethodError) Error() string {
	return "未知的匹配方法: " + e.name
}

func (e *unknownMethodError) Unwrap() error {
	return ErrUnknownMethod
}
