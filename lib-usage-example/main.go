package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jobease/jobfill/pkg/dom"
	"github.com/jobease/jobfill/pkg/engine"
	"github.com/jobease/jobfill/pkg/profile"
	"github.com/jobease/jobfill/pkg/storage"
)

func main() {
	// Usage: go run *.go -page form.html -profile profile.json -url https://jobs.example.com/apply

	pageFlag := flag.String("page", "", "HTML file of the application form")
	profileFlag := flag.String("profile", "", "Profile JSON")
	urlFlag := flag.String("url", "", "URL the page was served from")

	flag.Parse()

	if *pageFlag == "" || *profileFlag == "" {
		fmt.Println("Both -page and -profile are required.")
		return
	}

	f, err := os.Open(*pageFlag)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer f.Close()

	page, err := dom.Parse(f, *urlFlag)
	if err != nil {
		fmt.Println(err)
		return
	}

	data, err := os.ReadFile(*profileFlag)
	if err != nil {
		fmt.Println(err)
		return
	}
	p, err := profile.Parse(data)
	if err != nil {
		fmt.Println(err)
		return
	}

	// An in-memory store keeps nothing between runs; use storage.Open for a
	// SQLite file instead.
	sess := engine.New(page, storage.NewMemory(), engine.DefaultConfig(), nil)
	defer sess.Close()

	res, err := sess.Run(context.Background(), p)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, ev := range res.Events {
		fmt.Println(ev.Field, ev.OK, ev.Ms)
	}
	fmt.Printf("filled %d of %d\n", res.Filled, res.Total)
}
