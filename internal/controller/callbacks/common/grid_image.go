package common

import (
	"bytes"
	"image/color"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Константы размеров и отступов
const (
	imageHeaderHeight = 60
	imageLabelsWidth  = 70
	imageColumnWidth  = 110
	imageRowHeight    = 28
	imageLegendHeight = 40
	imagePadding      = 4.0
	cellBorderRadius  = 5.0
)

// Цветовая схема
var (
	imageBgColor     = color.RGBA{245, 246, 248, 255}
	imageTextColor   = color.RGBA{80, 85, 90, 255}
	imageLineColor   = color.NRGBA{200, 200, 200, 255}
	imageNowColor    = color.NRGBA{255, 80, 80, 200}
	evenColumnColor  = color.NRGBA{240, 240, 240, 255}
	oddColumnColor   = color.NRGBA{228, 228, 228, 255}
	cellDefaultColor = color.RGBA{220, 220, 220, 200}
)

var slotColors = map[model.SlotState]color.RGBA{
	model.SlotAvailable:                 {133, 193, 85, 220},
	model.SlotReserving:                 {90, 150, 230, 230},
	model.SlotBooked:                    {255, 160, 170, 255},
	model.SlotUnavailable:               {158, 158, 158, 200},
	model.SlotSubjectToOtherReservation: {240, 200, 80, 230},
}

// GenerateGridImage рисует сетку доступности: колонка на ресурс, строка на слот
func GenerateGridImage(grid *model.SlotGrid, title string, now time.Time) ([]byte, error) {
	resources := grid.Resources()

	width := imageLabelsWidth + max(len(resources), 1)*imageColumnWidth
	height := imageHeaderHeight + max(grid.Len(), 1)*imageRowHeight + imageLegendHeight

	dc := gg.NewContext(width, height)
	dc.SetColor(imageBgColor)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	drawGridHeader(dc, grid, resources, title)
	drawGridColumns(dc, grid, resources)
	drawGridTimeLabels(dc, grid)
	drawNowLine(dc, grid, now, width)
	drawGridLegend(dc, height)

	return encodeImage(dc)
}

// drawGridHeader рисует заголовок и имена ресурсов
func drawGridHeader(dc *gg.Context, grid *model.SlotGrid, resources []string, title string) {
	dc.SetColor(imageTextColor)
	dc.DrawStringAnchored(title, imagePadding*2, 16, 0, 0.5)

	for i, id := range resources {
		x := float64(imageLabelsWidth + i*imageColumnWidth + imageColumnWidth/2)
		dc.DrawStringAnchored(truncate(grid.ResourceName(id), 14), x, imageHeaderHeight-14, 0.5, 0.5)
	}
}

// drawGridColumns рисует фон колонок и ячейки слотов
func drawGridColumns(dc *gg.Context, grid *model.SlotGrid, resources []string) {
	columnHeight := float64(grid.Len() * imageRowHeight)

	for col, id := range resources {
		x := float64(imageLabelsWidth + col*imageColumnWidth)

		if col%2 == 0 {
			dc.SetColor(evenColumnColor)
		} else {
			dc.SetColor(oddColumnColor)
		}
		dc.DrawRectangle(x, imageHeaderHeight, imageColumnWidth, columnHeight)
		dc.Fill()

		for row := 0; row < grid.Len(); row++ {
			y := float64(imageHeaderHeight + row*imageRowHeight)
			fill := slotColor(grid.State(id, row))

			dc.SetColor(fill)
			dc.DrawRoundedRectangle(x+imagePadding, y+imagePadding/2, imageColumnWidth-imagePadding*2, imageRowHeight-imagePadding, cellBorderRadius)
			dc.Fill()

			dc.SetColor(darkenColor(fill, 0.8))
			dc.SetLineWidth(1)
			dc.DrawRoundedRectangle(x+imagePadding, y+imagePadding/2, imageColumnWidth-imagePadding*2, imageRowHeight-imagePadding, cellBorderRadius)
			dc.Stroke()
		}
	}
}

// drawGridTimeLabels рисует время начала каждого слота слева
func drawGridTimeLabels(dc *gg.Context, grid *model.SlotGrid) {
	dc.SetColor(imageTextColor)
	dc.SetLineWidth(0.3)

	for row := 0; row < grid.Len(); row++ {
		y := float64(imageHeaderHeight + row*imageRowHeight)
		dc.DrawStringAnchored(formatting.FormatTime(grid.SlotStart(row)), imageLabelsWidth-8, y+imageRowHeight/2, 1, 0.5)

		dc.SetColor(imageLineColor)
		dc.DrawLine(imageLabelsWidth, y, float64(dc.Width()), y)
		dc.Stroke()
		dc.SetColor(imageTextColor)
	}
}

// drawNowLine рисует линию текущего времени, если оно попадает в сетку
func drawNowLine(dc *gg.Context, grid *model.SlotGrid, now time.Time, width int) {
	if grid.Len() == 0 || now.Before(grid.Start()) || !now.Before(grid.SlotEnd(grid.Len()-1)) {
		return
	}

	offset := now.Sub(grid.Start()).Seconds() / grid.SlotWidth().Seconds()
	y := float64(imageHeaderHeight) + offset*imageRowHeight

	dc.SetColor(imageNowColor)
	dc.SetLineWidth(2)
	dc.DrawLine(imageLabelsWidth, y, float64(width), y)
	dc.Stroke()
}

// drawGridLegend рисует легенду внизу
func drawGridLegend(dc *gg.Context, height int) {
	items := []model.SlotState{
		model.SlotAvailable,
		model.SlotReserving,
		model.SlotBooked,
		model.SlotUnavailable,
		model.SlotSubjectToOtherReservation,
	}

	x := imagePadding * 2
	y := float64(height - imageLegendHeight/2)
	for _, state := range items {
		dc.SetColor(slotColor(state))
		dc.DrawRoundedRectangle(x, y-6, 14, 12, 3)
		dc.Fill()

		label := formatting.GetSlotStateDisplay(state).Text
		dc.SetColor(imageTextColor)
		dc.DrawStringAnchored(label, x+20, y, 0, 0.35)
		w, _ := dc.MeasureString(label)
		x += 20 + w + 16
	}
}

func slotColor(state model.SlotState) color.RGBA {
	if c, ok := slotColors[state]; ok {
		return c
	}
	return cellDefaultColor
}

// darkenColor затемняет цвет на указанный множитель
func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// encodeImage кодирует изображение в PNG
func encodeImage(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
