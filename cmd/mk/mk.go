package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rprtr258/mk"
	md "github.com/rprtr258/mk/contrib/markdown"
	"github.com/urfave/cli/v2"

	filters "github.com/rprtr258/timeline/pkg"
)

const imgsDir = "img/static"

type example struct {
	name string
	args []string
}

// examples lists the README pictures per filter, in segment order.
func examples(kind filters.Kind) []example {
	switch kind {
	case filters.KindBokeh:
		return []example{
			{"bokeh", nil},
			{"bokeh_rings", []string{"--radius", "40", "--ring-amount", "1", "--ring-size", "3"}},
		}
	case filters.KindHue:
		return []example{{"hue", []string{"--angle", "2"}}}
	case filters.KindVignette:
		return []example{
			{"vignette", []string{"--intensity", "0.8", "--radius", "0.8"}},
			{"vignette_bright", []string{"--intensity", "-0.6"}},
		}
	default:
		return []example{{kind.String(), nil}}
	}
}

func flagsDescription(args []string) string {
	if len(args) == 0 {
		return "defaults"
	}
	return strings.Join(args, " ")
}

func main() {
	if err := (&cli.App{
		Name:  "mk",
		Usage: "commands runner",
		Commands: []*cli.Command{
			{
				Name:  "imgs",
				Usage: "update example imgs from orig.png",
				Action: func(*cli.Context) error {
					timelineCmd := mk.ShellAlias("go", "run", "cmd/timeline/main.go", "-i", filepath.Join(imgsDir, "orig.png"))

					for _, kind := range filters.Kinds() {
						for _, e := range examples(kind) {
							imageFilename, _ := mk.Must2(timelineCmd(append([]string{kind.String()}, e.args...)...))
							mk.Must0(os.Rename(strings.TrimSpace(imageFilename), filepath.Join(imgsDir, e.name+".png")))
						}
					}

					return nil
				},
			},
			{
				Name:  "readme",
				Usage: "compile readme file",
				Action: func(*cli.Context) error {
					b := &bytes.Buffer{}
					md.H1(b, "timeline - photo posts with filters")

					md.H2(b, "Install")
					md.Code(b, "bash", "go install github.com/rprtr258/timeline/cmd/timeline@latest\ngo install github.com/rprtr258/timeline/cmd/timelineweb@latest")

					md.H2(b, "Usage")
					usage, _ := mk.Must2(mk.ShellCmd("go", "run", "cmd/timeline/main.go", "--help"))
					md.Code(b, "php", usage)

					md.H2(b, "Web editor")
					webUsage, _ := mk.Must2(mk.ShellCmd("go", "run", "cmd/timelineweb/main.go", "--help"))
					md.Code(b, "php", webUsage)

					rows := [][]string{{fmt.Sprintf("![](./%s/orig.png)", imgsDir), "Original", "-"}}
					for _, kind := range filters.Kinds() {
						for _, e := range examples(kind) {
							rows = append(rows, []string{
								fmt.Sprintf("![](./%s/%s.png)", imgsDir, e.name),
								kind.Title(),
								flagsDescription(e.args),
							})
						}
					}

					md.H2(b, "Filters")
					md.Table(b, []string{"Example", "Filter", "Flags"}, rows)

					mk.Must0(os.WriteFile("README.md", b.Bytes(), 0o644))

					return nil
				},
			},
		},
	}).Run(os.Args); err != nil {
		log.Fatal(err.Error())
	}
}
