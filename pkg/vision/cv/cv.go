// Package cv 提供基于 OpenCV (gocv) 的图像读写、显示与模板匹配后端
//
// 纯 Go 的匹配实现在 match 包中，这里的 MatchTemplate 使用
// gocv.MatchTemplate 计算同样的得分面，便于交叉验证和加速。
//
// 基本用法:
//
//	frame, _ := cv.ReadImageGray("scene.png")
//	defer frame.Close()
//	grid, _ := cv.GridFromMat(frame)
//	res, err := cv.FindBest(grid, pattern, match.CCoeffNormed)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("匹配位置: %v\n", res.TopLeft)
package cv
