package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joelkehle/hotelscout/internal/render"
)

func main() {
	inputPath := flag.String("input", "", "Path to a saved response envelope JSON or raw markdown report")
	outputPath := flag.String("output", "", "Path to write the rendered PDF (defaults to input path with .pdf)")
	htmlOnly := flag.Bool("html", false, "Write the intermediate HTML instead of a PDF")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("missing required -input")
	}

	in, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	out := *outputPath
	if out == "" {
		out = replaceExt(*inputPath, ".pdf")
		if *htmlOnly {
			out = replaceExt(*inputPath, ".html")
		}
	}

	if *htmlOnly {
		doc, err := render.BuildHTML(string(in))
		if err != nil {
			log.Fatalf("build html: %v", err)
		}
		if err := os.WriteFile(out, []byte(doc), 0o644); err != nil {
			log.Fatalf("write html: %v", err)
		}
		log.Printf("render-hotel-report html written to %s", out)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	renderer := render.NewChromiumPDFRenderer()
	pdf, err := renderer.Render(ctx, string(in))
	if err != nil {
		log.Fatalf("render pdf: %v", err)
	}
	if err := os.WriteFile(out, pdf, 0o644); err != nil {
		log.Fatalf("write pdf: %v", err)
	}
	log.Printf("render-hotel-report pdf written to %s", out)
}

func replaceExt(path, ext string) string {
	if i := strings.LastIndex(path, "."); i > 0 {
		return path[:i] + ext
	}
	return path + ext
}
