// inspect-layout dumps how a statement PDF reflows into lines and tokens.
// Useful when writing extractor configs: it shows the exact text and
// coordinates the extractors will see.
package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/ledgerscan/ledgerscan/internal/layout"
	"github.com/ledgerscan/ledgerscan/internal/logger"
)

func main() {
	log := logger.New()

	pdfPath := flag.String("pdf", "", "Path to the statement PDF")
	showTokens := flag.Bool("tokens", false, "Also print each token with its coordinates")
	flag.Parse()

	if *pdfPath == "" {
		log.Fatal().Msg("Error: --pdf is required")
	}

	doc, err := layout.OpenPDF(*pdfPath)
	if err != nil {
		log.Fatal().Err(err).Str("pdf", *pdfPath).Msg("Failed to read PDF")
	}

	for _, page := range doc.Pages {
		fmt.Printf("=== page %d ===\n", page.Number)
		for _, line := range strings.Split(page.Text, "\n") {
			fmt.Println(line)
		}
		if *showTokens {
			fmt.Println("--- tokens ---")
			for _, tok := range page.Tokens {
				fmt.Printf("%-30q x=[%.1f,%.1f] y=[%.1f,%.1f]\n",
					tok.Text, tok.X0, tok.X1, tok.Top, tok.Bottom)
			}
		}
		fmt.Println()
	}
}
