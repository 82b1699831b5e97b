package cv

import (
	"errors"
	"image"
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/zoeyai/zoeymatch/pkg/vision/annotate"
	"github.com/zoeyai/zoeymatch/pkg/vision/match"
)

// texturedGrid 生成确定性的随机纹理网格
func texturedGrid(w, h int, seed uint64) *match.Grid {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	g := match.NewGrid(w, h)
	for i := range g.Pix {
		g.Pix[i] = uint8(r.IntN(256))
	}
	return g
}

func TestTemplateMode(t *testing.T) {
	want := map[match.Method]gocv.TemplateMatchMode{
		match.SqDiff:       gocv.TmSqdiff,
		match.SqDiffNormed: gocv.TmSqdiffNormed,
		match.CCorr:        gocv.TmCcorr,
		match.CCorrNormed:  gocv.TmCcorrNormed,
		match.CCoeff:       gocv.TmCcoeff,
		match.CCoeffNormed: gocv.TmCcoeffNormed,
	}
	for m, mode := range want {
		got, err := TemplateMode(m)
		if err != nil {
			t.Fatalf("%v: %v", m, err)
		}
		if got != mode {
			t.Errorf("%v: 期望 %v, 实际 %v", m, mode, got)
		}
	}

	if _, err := TemplateMode(match.Method(99)); !errors.Is(err, match.ErrUnknownMethod) {
		t.Errorf("未知方法应返回 ErrUnknownMethod, 实际 %v", err)
	}
}

func TestGridMatRoundTrip(t *testing.T) {
	g := texturedGrid(13, 7, 1)

	mat, err := MatFromGrid(g)
	if err != nil {
		t.Fatalf("MatFromGrid 失败: %v", err)
	}
	defer mat.Close()

	if mat.Rows() != 7 || mat.Cols() != 13 || mat.Channels() != 1 {
		t.Fatalf("Mat 尺寸错误: %dx%dx%d", mat.Cols(), mat.Rows(), mat.Channels())
	}

	back, err := GridFromMat(mat)
	if err != nil {
		t.Fatalf("GridFromMat 失败: %v", err)
	}
	if !back.Equal(g) {
		t.Error("往返转换后像素不一致")
	}

	// 带步长的子网格
	sub := g.Sub(image.Rect(2, 1, 7, 5))
	subMat, err := MatFromGrid(sub)
	if err != nil {
		t.Fatalf("子网格 MatFromGrid 失败: %v", err)
	}
	defer subMat.Close()
	if v := subMat.GetUCharAt(3, 4); v != sub.At(4, 3) {
		t.Errorf("子网格像素错误: 期望 %d, 实际 %d", sub.At(4, 3), v)
	}

	if _, err := MatFromGrid(&match.Grid{}); err == nil {
		t.Error("空网格应返回错误")
	}
}

func TestGridFromColorMat(t *testing.T) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 4, 6, gocv.MatTypeCV8UC3)
	defer mat.Close()

	g, err := GridFromMat(mat)
	if err != nil {
		t.Fatalf("GridFromMat 失败: %v", err)
	}
	if g.Width != 6 || g.Height != 4 {
		t.Fatalf("尺寸错误: %dx%d", g.Width, g.Height)
	}
	if g.At(0, 0) != 255 {
		t.Errorf("白色应转为 255, 实际 %d", g.At(0, 0))
	}
}

// TestMatchTemplateAgreesWithGo OpenCV 与纯 Go 得分面在浮点误差内一致
func TestMatchTemplateAgreesWithGo(t *testing.T) {
	frame := texturedGrid(40, 30, 7)
	pattern := frame.Sub(image.Rect(17, 9, 25, 15)).Clone()

	for _, m := range match.Methods() {
		t.Run(m.String(), func(t *testing.T) {
			want, err := match.ComputeScoreSurface(frame, pattern, m)
			if err != nil {
				t.Fatalf("纯 Go 计算失败: %v", err)
			}
			got, err := MatchTemplate(frame, pattern, m)
			if err != nil {
				t.Fatalf("OpenCV 计算失败: %v", err)
			}
			if got.Rows() != want.Rows() || got.Cols() != want.Cols() {
				t.Fatalf("得分面尺寸不一致: %dx%d vs %dx%d", got.Cols(), got.Rows(), want.Cols(), want.Rows())
			}

			// 非归一化方法按量级放宽误差
			tol := 1e-3
			if !m.Normalized() {
				var maxAbs float64
				for _, v := range want.Raw() {
					maxAbs = math.Max(maxAbs, math.Abs(v))
				}
				tol = maxAbs * 1e-5
			}
			for y := 0; y < want.Rows(); y++ {
				for x := 0; x < want.Cols(); x++ {
					if d := math.Abs(got.At(x, y) - want.At(x, y)); d > tol {
						t.Fatalf("(%d,%d) 得分差异 %g 超过 %g", x, y, d, tol)
					}
				}
			}
		})
	}
}

func TestFindBest(t *testing.T) {
	frame := texturedGrid(64, 48, 3)
	pattern := frame.Sub(image.Rect(21, 30, 31, 39)).Clone()

	for _, m := range []match.Method{match.SqDiff, match.SqDiffNormed, match.CCorrNormed, match.CCoeff, match.CCoeffNormed} {
		res, err := FindBest(frame, pattern, m)
		if err != nil {
			t.Fatalf("%v: %v", m, err)
		}
		if res.TopLeft != (match.Point{X: 21, Y: 30}) {
			t.Errorf("%v: 期望 (21,30), 实际 %v", m, res.TopLeft)
		}
		if res.BottomRight != (match.Point{X: 31, Y: 39}) {
			t.Errorf("%v: 右下角错误 %v", m, res.BottomRight)
		}
		if res.Method != m {
			t.Errorf("方法未记录: %v", res.Method)
		}
	}
}

func TestMatchTemplateDimensionError(t *testing.T) {
	frame := match.NewGrid(5, 5)
	pattern := match.NewGrid(6, 2)

	_, err := MatchTemplate(frame, pattern, match.CCoeffNormed)
	if !match.IsDimensionError(err) {
		t.Errorf("期望尺寸错误, 实际 %v", err)
	}
}

func TestDrawMatch(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 50, 80, gocv.MatTypeCV8UC3)
	defer img.Close()

	res := &match.MatchResult{
		TopLeft:     match.Point{X: 10, Y: 10},
		BottomRight: match.Point{X: 30, Y: 25},
		Score:       0.9,
	}
	DrawMatch(&img, res, annotate.VideoStyle())

	// BGR 顺序，绿色在第 1 通道
	v := img.GetVecbAt(10, 10)
	if v[0] != 0 || v[1] != 255 || v[2] != 0 {
		t.Errorf("边框颜色错误: %v", v)
	}
	inner := img.GetVecbAt(18, 20)
	if inner[1] != 0 {
		t.Errorf("框内不应被绘制: %v", inner)
	}

	DrawMatch(&img, nil, annotate.DefaultStyle())
}

func TestWriteReadImage(t *testing.T) {
	g := texturedGrid(12, 9, 11)
	mat, err := MatFromGrid(g)
	if err != nil {
		t.Fatal(err)
	}
	defer mat.Close()

	path := filepath.Join(t.TempDir(), "sub", "gray.png")
	if err := WriteImage(path, mat); err != nil {
		t.Fatalf("WriteImage 失败: %v", err)
	}

	loaded, err := ReadImageGray(path)
	if err != nil {
		t.Fatalf("ReadImageGray 失败: %v", err)
	}
	defer loaded.Close()

	back, err := GridFromMat(loaded)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(g) {
		t.Error("PNG 往返后像素不一致")
	}

	if _, err := ReadImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("读取不存在的文件应返回错误")
	}
}

func TestMatcher(t *testing.T) {
	frame := texturedGrid(30, 20, 5)
	m, err := NewMatcher(frame.Sub(image.Rect(4, 6, 12, 11)), match.SqDiffNormed)
	if err != nil {
		t.Fatalf("创建匹配器失败: %v", err)
	}
	if m.Method() != match.SqDiffNormed {
		t.Errorf("方法错误: %v", m.Method())
	}
	res, err := m.Match(frame)
	if err != nil {
		t.Fatal(err)
	}
	if res.TopLeft != (match.Point{X: 4, Y: 6}) {
		t.Errorf("期望 (4,6), 实际 %v", res.TopLeft)
	}

	if _, err := NewMatcher(&match.Grid{}, match.CCoeff); !match.IsDimensionError(err) {
		t.Errorf("空模板应返回尺寸错误, 实际 %v", err)
	}
	bad := &match.Grid{Width: 4, Height: 2, Stride: 2, Pix: make([]uint8, 8)}
	if _, err := NewMatcher(bad, match.CCoeff); !match.IsDimensionError(err) {
		t.Errorf("步长小于宽度的模板应返回尺寸错误, 实际 %v", err)
	}
}
