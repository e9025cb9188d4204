package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/dungji/dungji-market-backend/internal/db"
)

type popupFlags struct {
	title     string
	content   string
	image     string
	link      string
	days      int
	priority  int
	position  string
	mobile    bool
	inactive  bool
	createdBy uint
}

func parseFlags(args []string) (*popupFlags, error) {
	fs := flag.NewFlagSet("create_popup", flag.ContinueOnError)
	f := &popupFlags{}
	var createdBy uint64

	fs.StringVar(&f.title, "title", "", "popup title (required)")
	fs.StringVar(&f.content, "content", "", "popup body text")
	fs.StringVar(&f.image, "image", "", "image URL")
	fs.StringVar(&f.link, "link", "", "link URL")
	fs.IntVar(&f.days, "days", 7, "display period in days (0 = no end date)")
	fs.IntVar(&f.priority, "priority", 0, "display priority (higher first)")
	fs.StringVar(&f.position, "position", "center", "center | bottom")
	fs.BoolVar(&f.mobile, "mobile", true, "show on mobile")
	fs.BoolVar(&f.inactive, "inactive", false, "create as inactive")
	fs.Uint64Var(&createdBy, "created-by", 0, "admin user id")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.title == "" {
		return nil, errors.New("-title is required")
	}
	if f.days < 0 {
		return nil, errors.New("-days must be zero or positive")
	}
	f.createdBy = uint(createdBy)
	return f, nil
}

func (f *popupFlags) input(now time.Time) service.PopupInput {
	in := service.PopupInput{
		Title:        f.title,
		Content:      f.content,
		ImageURL:     f.image,
		LinkURL:      f.link,
		Position:     f.position,
		Priority:     f.priority,
		IsActive:     !f.inactive,
		ShowOnMain:   true,
		ShowOnMobile: f.mobile,
		StartDate:    &now,
	}
	if f.days > 0 {
		end := now.AddDate(0, 0, f.days)
		in.EndDate = &end
	}
	return in
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal("create_popup: ", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	contents := service.NewContentService(repository.NewContentRepository(db.GetDB()))

	var createdBy *uint
	if opts.createdBy != 0 {
		createdBy = &opts.createdBy
	}
	popup, err := contents.CreatePopup(createdBy, opts.input(time.Now()))
	if err != nil {
		log.Fatal("Failed to create popup:", err)
	}

	fmt.Printf("Popup created: id=%d title=%q priority=%d\n", popup.ID, popup.Title, popup.Priority)
	if popup.EndDate != nil {
		fmt.Printf("  visible until %s\n", popup.EndDate.Format("2006-01-02 15:04"))
	}
}
