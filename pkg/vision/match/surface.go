package match

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MaxPatternArea 模板像素数上限
// 在此范围内所有累加量都能用 int64 精确表示
const MaxPatternArea = 1 << 22

// Surface 得分面
// 第 y 行第 x 列为模板左上角对齐到帧 (x, y) 时的得分
type Surface struct {
	data *mat.Dense
}

// NewSurface 使用行优先数据创建得分面，供其他计算后端使用
func NewSurface(rows, cols int, data []float64) (*Surface, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("得分面尺寸非法: %dx%d", cols, rows)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("得分面数据长度不匹配: 期望 %d, 实际 %d", rows*cols, len(data))
	}
	if rows == 0 || cols == 0 {
		return &Surface{}, nil
	}
	return &Surface{data: mat.NewDense(rows, cols, data)}, nil
}

// Rows 行数（可选 y 位置数）
func (s *Surface) Rows() int {
	if s == nil || s.data == nil {
		return 0
	}
	r, _ := s.data.Dims()
	return r
}

// Cols 列数（可选 x 位置数）
func (s *Surface) Cols() int {
	if s == nil || s.data == nil {
		return 0
	}
	_, c := s.data.Dims()
	return c
}

// Len 候选位置总数
func (s *Surface) Len() int {
	return s.Rows() * s.Cols()
}

// At 返回位置 (x, y) 的得分，越界或空得分面返回 NaN
func (s *Surface) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= s.Cols() || y >= s.Rows() {
		return math.NaN()
	}
	return s.data.At(y, x)
}

// Raw 返回行优先的底层数据（只读使用）
func (s *Surface) Raw() []float64 {
	if s == nil || s.data == nil {
		return nil
	}
	return s.data.RawMatrix().Data
}

// LocateBestMatch 按方法极性在得分面上取最佳位置
// 并列时取行优先扫描中第一个出现的位置
func LocateBestMatch(s *Surface, method Method) (Point, float64, error) {
	if !method.Valid() {
		return Point{}, 0, ErrUnknownMethod
	}
	raw := s.Raw()
	if len(raw) == 0 {
		return Point{}, 0, ErrEmptySurface
	}

	var idx int
	if method.Polarity() == Minimize {
		idx = floats.MinIdx(raw)
	} else {
		idx = floats.MaxIdx(raw)
	}

	cols := s.Cols()
	return Point{X: idx % cols, Y: idx / cols}, raw[idx], nil
}

// ComputeScoreSurface 计算模板在帧上滑动的得分面
func ComputeScoreSurface(frame, pattern *Grid, method Method, opts ...Option) (*Surface, error) {
	cfg := newOptions(opts)
	return computeSurface(frame, pattern, method, newPatternStats(pattern), cfg.workers)
}

// patternStats 模板的预计算统计量
type patternStats struct {
	n      int64
	sum    int64
	sumSq  int64
	varSum int64 // n*ΣT² - (ΣT)²
}

func newPatternStats(p *Grid) patternStats {
	var st patternStats
	if p == nil || !p.wellFormed() {
		return st
	}
	st.n = int64(p.Width * p.Height)
	for y := 0; y < p.Height; y++ {
		for _, v := range p.Pix[y*p.Stride : y*p.Stride+p.Width] {
			st.sum += int64(v)
			st.sumSq += int64(v) * int64(v)
		}
	}
	st.varSum = st.n*st.sumSq - st.sum*st.sum
	return st
}

// integral 求和表，大小 (W+1)*(H+1)
type integral struct {
	stride int
	sum    []int64
	sumSq  []int64
}

func newIntegral(g *Grid) *integral {
	stride := g.Width + 1
	it := &integral{
		stride: stride,
		sum:    make([]int64, stride*(g.Height+1)),
		sumSq:  make([]int64, stride*(g.Height+1)),
	}
	for y := 0; y < g.Height; y++ {
		var rowSum, rowSq int64
		row := g.Pix[y*g.Stride : y*g.Stride+g.Width]
		for x, v := range row {
			rowSum += int64(v)
			rowSq += int64(v) * int64(v)
			i := (y+1)*stride + x + 1
			it.sum[i] = it.sum[i-stride] + rowSum
			it.sumSq[i] = it.sumSq[i-stride] + rowSq
		}
	}
	return it
}

// window 返回以 (x, y) 为左上角、w*h 窗口的 ΣI 与 ΣI²
func (it *integral) window(x, y, w, h int) (int64, int64) {
	a := y*it.stride + x
	b := a + w
	c := (y+h)*it.stride + x
	d := c + w
	return it.sum[d] - it.sum[b] - it.sum[c] + it.sum[a],
		it.sumSq[d] - it.sumSq[b] - it.sumSq[c] + it.sumSq[a]
}

func computeSurface(frame, pattern *Grid, method Method, ps patternStats, workers int) (*Surface, error) {
	if !method.Valid() {
		return nil, ErrUnknownMethod
	}
	if err := CheckDimensions(frame, pattern); err != nil {
		return nil, err
	}

	w, h := pattern.Width, pattern.Height
	rows := frame.Height - h + 1
	cols := frame.Width - w + 1
	data := make([]float64, rows*cols)
	it := newIntegral(frame)

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > rows {
		workers = rows
	}

	scoreRow := func(y int) {
		out := data[y*cols : (y+1)*cols]
		for x := 0; x < cols; x++ {
			sI, sI2 := it.window(x, y, w, h)
			sTI := dot(frame, pattern, x, y)
			out[x] = score(method, ps, sI, sI2, sTI)
		}
	}

	if workers <= 1 {
		for y := 0; y < rows; y++ {
			scoreRow(y)
		}
		return NewSurface(rows, cols, data)
	}

	// 按行分段并发计算，各 goroutine 只写自己负责的行
	var wg sync.WaitGroup
	rowsPerWorker := (rows + workers - 1) / workers
	for start := 0; start < rows; start += rowsPerWorker {
		end := min(start+rowsPerWorker, rows)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for y := start; y < end; y++ {
				scoreRow(y)
			}
		}(start, end)
	}
	wg.Wait()

	return NewSurface(rows, cols, data)
}

// dot 计算模板与 (x, y) 处窗口的 ΣT·I
func dot(frame, pattern *Grid, x, y int) int64 {
	var acc int64
	for ty := 0; ty < pattern.Height; ty++ {
		tRow := pattern.Pix[ty*pattern.Stride : ty*pattern.Stride+pattern.Width]
		fOff := (y+ty)*frame.Stride + x
		fRow := frame.Pix[fOff : fOff+pattern.Width]
		var rowAcc int64
		for i, t := range tRow {
			rowAcc += int64(t) * int64(fRow[i])
		}
		acc += rowAcc
	}
	return acc
}

// score 根据累加量计算单个位置的得分
//
// 归一化分母为 0 时：窗口与模板逐像素相同视为完全匹配，否则视为最差。
func score(method Method, ps patternStats, sI, sI2, sTI int64) float64 {
	sqDiff := ps.sumSq - 2*sTI + sI2

	switch method {
	case SqDiff:
		return float64(sqDiff)

	case SqDiffNormed:
		if ps.sumSq == 0 || sI2 == 0 {
			if sqDiff == 0 {
				return 0
			}
			return 1
		}
		v := float64(sqDiff) / math.Sqrt(float64(ps.sumSq)*float64(sI2))
		return math.Min(v, 1)

	case CCorr:
		return float64(sTI)

	case CCorrNormed:
		if ps.sumSq == 0 || sI2 == 0 {
			if sqDiff == 0 {
				return 1
			}
			return 0
		}
		return clampUnit(float64(sTI) / math.Sqrt(float64(ps.sumSq)*float64(sI2)))

	case CCoeff:
		num := ps.n*sTI - ps.sum*sI
		return float64(num) / float64(ps.n)

	case CCoeffNormed:
		varI := ps.n*sI2 - sI*sI
		if ps.varSum == 0 || varI == 0 {
			if sqDiff == 0 {
				return 1
			}
			return 0
		}
		num := ps.n*sTI - ps.sum*sI
		return clampUnit(float64(num) / math.Sqrt(float64(ps.varSum)*float64(varI)))
	}
	return 0
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
