package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/dungji/dungji-market-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

// 헤더 이름 → CatalogRow 필드. 영문/한글 헤더 모두 허용한다.
var columnAliases = map[string]string{
	"category":      "category",
	"카테고리":          "category",
	"category_type": "category_type",
	"카테고리유형":        "category_type",
	"product":       "product",
	"상품명":           "product",
	"product_type":  "product_type",
	"상품유형":          "product_type",
	"base_price":    "base_price",
	"기본가격":          "base_price",
	"출고가":           "base_price",
	"image_url":     "image_url",
	"이미지":           "image_url",
	"description":   "description",
	"설명":            "description",
}

func main() {
	sheet := flag.String("sheet", "", "sheet name (default: first sheet)")
	yes := flag.Bool("y", false, "skip confirmation")
	flag.Parse()

	// 명령줄 인자 확인
	if flag.NArg() < 1 {
		log.Fatal("Usage: go run cmd/seed/main.go [-sheet name] [-y] <xlsx_file_path>")
	}
	filePath := flag.Arg(0)

	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// XLSX 파일 읽기
	fmt.Printf("Reading XLSX file: %s\n", filePath)
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer f.Close()

	rows, skipped, err := readCatalog(f, *sheet)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	fmt.Printf("Total products to import: %d (skipped rows: %d)\n", len(rows), skipped)

	if !*yes && !confirm(os.Stdin) {
		fmt.Println("Import cancelled.")
		return
	}

	// DB 연결
	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	groupBuys := service.NewGroupBuyService(
		db.GetDB(),
		repository.NewGroupBuyRepository(db.GetDB()),
		repository.NewUserRepository(db.GetDB()),
		nil,
		nil,
		nil,
		cfg.Policy.GroupBuy,
	)
	if err := groupBuys.EnsureDefaultCategories(); err != nil {
		log.Fatal("Failed to seed categories:", err)
	}

	count, err := groupBuys.ImportCatalog(rows)
	if err != nil {
		log.Fatal("Failed to import catalog:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", count)
}

func confirm(in io.Reader) bool {
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var answer string
	fmt.Fscanln(in, &answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}

// readCatalog 첫 행을 헤더로 보고 카탈로그 행을 읽는다
func readCatalog(f *excelize.File, sheetName string) ([]service.CatalogRow, int, error) {
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	columns := make(map[string]int)
	for i, header := range rows[0] {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(header), " ", ""))
		if field, ok := columnAliases[key]; ok {
			columns[field] = i
		}
	}
	for _, required := range []string{"category", "product"} {
		if _, ok := columns[required]; !ok {
			return nil, 0, fmt.Errorf("missing required column %q", required)
		}
	}

	cell := func(row []string, field string) string {
		i, ok := columns[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		catalog []service.CatalogRow
		skipped int
	)
	for _, row := range rows[1:] {
		entry := service.CatalogRow{
			Category:     cell(row, "category"),
			CategoryType: model.CategoryType(strings.ToLower(cell(row, "category_type"))),
			Product:      cell(row, "product"),
			ProductType:  model.ProductType(strings.ToLower(cell(row, "product_type"))),
			ImageURL:     cell(row, "image_url"),
			Description:  cell(row, "description"),
		}
		if entry.Category == "" || entry.Product == "" {
			skipped++
			continue
		}

		if raw := cell(row, "base_price"); raw != "" {
			price, err := parsePrice(raw)
			if err != nil {
				skipped++
				continue
			}
			entry.BasePrice = price
		}
		catalog = append(catalog, entry)
	}
	return catalog, skipped, nil
}

// parsePrice "1,155,000" / "1155000원" 형식 허용
func parsePrice(raw string) (int64, error) {
	cleaned := strings.NewReplacer(",", "", "원", "", " ", "").Replace(raw)
	if cleaned == "" {
		return 0, nil
	}
	price, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price %q", raw)
	}
	return price, nil
}
