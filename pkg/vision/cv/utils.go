package cv

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/zoeyai/zoeymatch/pkg/vision/match"
)

// ReadImage 读取图像文件
func ReadImage(filename string) (gocv.Mat, error) {
	mat := gocv.IMRead(filename, gocv.IMReadColor)
	if mat.Empty() {
		return mat, fmt.Errorf("无法读取图像: %s", filename)
	}
	return mat, nil
}

// ReadImageGray 读取灰度图像
func ReadImageGray(filename string) (gocv.Mat, error) {
	mat := gocv.IMRead(filename, gocv.IMReadGrayScale)
	if mat.Empty() {
		return mat, fmt.Errorf("无法读取图像: %s", filename)
	}
	return mat, nil
}

// WriteImage 保存图像文件
func WriteImage(filename string, img gocv.Mat) error {
	// 确保目录存在
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	if ok := gocv.IMWrite(filename, img); !ok {
		return fmt.Errorf("保存图像失败: %s", filename)
	}
	return nil
}

// ToGray 转换为灰度图
func ToGray(src gocv.Mat) gocv.Mat {
	if src.Channels() == 1 {
		return src.Clone()
	}
	dst := gocv.NewMat()
	if src.Channels() == 4 {
		gocv.CvtColor(src, &dst, gocv.ColorBGRAToGray)
	} else {
		gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
	}
	return dst
}

// ResizeImage 按比例缩放图像
func ResizeImage(img gocv.Mat, scale float64) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Resize(img, &dst, image.Point{}, scale, scale, gocv.InterpolationLinear)
	return dst
}

// ImageToMat 将 image.Image 转换为 BGR 三通道 gocv.Mat
func ImageToMat(img image.Image) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("图像转换失败: %w", err)
	}
	return mat, nil
}

// MatToImage 将 gocv.Mat 转换为 image.Image
func MatToImage(mat gocv.Mat) (image.Image, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("Mat 转换失败: %w", err)
	}
	return img, nil
}

// GridFromMat 将 Mat 转为灰度网格（拷贝像素）
func GridFromMat(mat gocv.Mat) (*match.Grid, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("Mat 为空")
	}
	gray := ToGray(mat)
	defer gray.Close()

	if gray.Type() != gocv.MatTypeCV8U {
		return nil, fmt.Errorf("不支持的 Mat 类型: %v", gray.Type())
	}
	return match.NewGridFromPix(gray.Cols(), gray.Rows(), gray.ToBytes())
}

// MatFromGrid 将灰度网格转为单通道 Mat
func MatFromGrid(g *match.Grid) (gocv.Mat, error) {
	if g.Empty() {
		return gocv.Mat{}, fmt.Errorf("网格为空")
	}
	compact := g
	if g.Stride != g.Width {
		compact = g.Clone()
	}
	view, err := gocv.NewMatFromBytes(compact.Height, compact.Width, gocv.MatTypeCV8U, compact.Pix)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("创建 Mat 失败: %w", err)
	}
	defer view.Close()

	// view 引用 Go 内存，返回独立拷贝
	return view.Clone(), nil
}
