package main

import (
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"minigopher/pkg/compiler"
	"minigopher/pkg/config"
	"minigopher/pkg/diag"
	"minigopher/pkg/postfix"
	"minigopher/pkg/utils"
)

const (
	screenWidth  = 800
	screenHeight = 480
	lineHeight   = 15
	stepsPerTick = 500
)

var (
	face       = text.NewGoXFace(basicfont.Face7x13)
	panelColor = color.RGBA{0x20, 0x24, 0x2c, 0xff}
	titleColor = color.RGBA{0xe5, 0xc0, 0x7b, 0xff}
	bodyColor  = color.RGBA{0xd0, 0xd0, 0xd0, 0xff}
)

type Game struct {
	dbg   *Debugger
	pixel *ebiten.Image // 1x1 white, scaled into panel backgrounds
}

func (g *Game) Update() error {
	for _, r := range ebiten.AppendInputChars(nil) {
		if r == ' ' && len(g.dbg.InputLine()) == 0 {
			continue
		}
		g.dbg.Type(r)
	}
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		g.dbg.Enter()
	case inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		g.dbg.Backspace()
	case inpututil.IsKeyJustPressed(ebiten.KeySpace) && len(g.dbg.InputLine()) == 0:
		g.dbg.Step()
	case inpututil.IsKeyJustPressed(ebiten.KeyF2):
		g.dbg.ToggleRun()
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		g.dbg.Hibernate()
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		g.dbg.Restore()
	}
	g.dbg.Tick(stepsPerTick)
	return nil
}

func (g *Game) drawPanel(screen *ebiten.Image, title string, lines []string, x, y, w, h int) {
	if g.pixel == nil {
		g.pixel = ebiten.NewImage(1, 1)
		g.pixel.Fill(color.White)
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(w), float64(h))
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(panelColor)
	screen.DrawImage(g.pixel, op)

	drawText(screen, title, x+6, y+4, titleColor)
	drawText(screen, strings.Join(lines, "\n"), x+6, y+4+lineHeight, bodyColor)
}

func drawText(screen *ebiten.Image, s string, x, y int, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(c)
	op.LineSpacing = lineHeight
	text.Draw(screen, s, face, op)
}

func (g *Game) Draw(screen *ebiten.Image) {
	d := g.dbg
	g.drawPanel(screen, "code", d.Listing(), 4, 4, 380, 300)
	g.drawPanel(screen, "stack", d.StackLines(), 390, 4, 200, 300)
	g.drawPanel(screen, "variables", d.VarLines(), 596, 4, 200, 300)
	g.drawPanel(screen, "output", d.OutputLines(8), 4, 310, 792, 140)

	ebitenutil.DebugPrintAt(screen, "> "+d.InputLine()+"_", 8, 454)
	ebitenutil.DebugPrintAt(screen, d.Status()+"   [space] step  [F2] run  [F5] hibernate  [F9] restore", 240, 454)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// loadProgram compiles a source file, or loads it when it already holds
// postfix text.
func loadProgram(path string) (*postfix.Program, error) {
	if filepath.Ext(path) == ".postfix" {
		return postfix.LoadFile(path)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	art, err := compiler.Compile(string(source), utils.ModuleName(path))
	if err != nil {
		return nil, err
	}
	return art.Program, nil
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: desktop file.mgo|file.postfix")
	}
	cfg, err := config.Load(config.DefaultFile, true)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	compiler.SetTraceLevel(cfg.Trace)

	fullPath, _, err := utils.GetPathInfo(os.Args[1])
	if err != nil {
		log.Fatalf("Bad path: %v", err)
	}
	program, err := loadProgram(fullPath)
	if err != nil {
		log.Fatal(diag.Render(err, diag.Language(cfg.Language)))
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("MiniGopher PSM debugger")

	game := &Game{dbg: NewDebugger(program, cfg.MaxSteps)}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
