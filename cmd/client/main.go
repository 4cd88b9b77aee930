// Package main 是录入支出的命令行客户端入口。
package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rentbook-go/internal/upload"
	"rentbook-go/pkg/apiclient"
	"rentbook-go/pkg/receiptform"
	"rentbook-go/pkg/uploader"

	"github.com/spf13/cobra"
)

var serverURL string

func main() {
	root := &cobra.Command{
		Use:   "rentbook",
		Short: "出租房支出记账客户端",
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "后端服务地址")

	root.AddCommand(
		uploadCmd(),
		addExpenseCmd(),
		listPropertiesCmd(),
		listCategoriesCmd(),
		listFilesCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// detectMimeType 根据文件扩展名判断 Content-Type。
func detectMimeType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	// HEIC/HEIF 在多数系统的 MIME 表里缺失，单独处理
	case ".heic":
		return upload.MimeHEIC
	case ".heif":
		return upload.MimeHEIF
	}
	if mimeType := mime.TypeByExtension(filepath.Ext(fileName)); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}

// selectLocal 把本地文件送入客户端校验管道，返回就绪的选择结果。
func selectLocal(path string) (*uploader.Selection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	h := uploader.New(uploader.Config{
		OnProgress: func(p int) { fmt.Printf("\r读取中 %d%%", p) },
	})
	if err := h.Select(filepath.Base(path), detectMimeType(path), info.Size(), f); err != nil {
		return nil, err
	}
	h.Wait()
	fmt.Println()

	if err := h.Err(); err != nil {
		return nil, err
	}
	sel := h.Current()
	if sel == nil {
		return nil, fmt.Errorf("文件未就绪: %s", path)
	}
	return sel, nil
}

func uploadCmd() *cobra.Command {
	var expenseID uint
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "上传一张收据，可选关联到已有支出",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selectLocal(args[0])
			if err != nil {
				return err
			}

			var eid *uint
			if expenseID > 0 {
				eid = &expenseID
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			res, err := apiclient.NewClient(serverURL).UploadReceipt(ctx, sel.Name, sel.Type, sel.Data, eid)
			if err != nil {
				return err
			}
			fmt.Printf("上传成功: id=%d stored=%s size=%d type=%s\n",
				res.File.ID, res.File.StoredFilename, res.File.FileSize, res.File.MimeType)
			return nil
		},
	}
	cmd.Flags().UintVar(&expenseID, "expense", 0, "关联的支出 id")
	return cmd
}

func addExpenseCmd() *cobra.Command {
	var (
		date        string
		propertyID  uint
		provider    string
		amount      float64
		category    string
		comments    string
		receiptPath string
	)
	cmd := &cobra.Command{
		Use:   "add-expense",
		Short: "录入一笔支出，可附带收据",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := apiclient.NewClient(serverURL)

			// 类别按名称录入，对照服务端类别表解析出 id 供表单校验
			categoryID, err := resolveCategory(ctx, client, category)
			if err != nil {
				return err
			}

			form := &receiptform.Form{
				Date:       date,
				PropertyID: propertyID,
				Provider:   provider,
				Amount:     &amount,
				CategoryID: categoryID,
				Comments:   comments,
			}
			if receiptPath != "" {
				sel, err := selectLocal(receiptPath)
				if err != nil {
					return err
				}
				form.Receipt = sel
			}

			if errs := form.Validate(); len(errs) > 0 {
				for field, msg := range errs {
					fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
				}
				return fmt.Errorf("表单校验未通过")
			}

			payload := form.BuildPayload()
			var notes string
			if payload.Comments != nil {
				notes = *payload.Comments
			}
			expense, err := client.CreateExpense(ctx, map[string]any{
				"property_id":  payload.PropertyID,
				"category":     category,
				"description":  payload.Provider,
				"amount":       payload.Amount,
				"expense_date": payload.Date,
				"notes":        notes,
			})
			if err != nil {
				return err
			}
			fmt.Printf("支出已创建: id=%d\n", expense.ID)

			// 收据走标准上传接口并关联到刚创建的支出
			if form.Receipt != nil {
				res, err := client.UploadReceipt(ctx, form.Receipt.Name, form.Receipt.Type, form.Receipt.Data, &expense.ID)
				if err != nil {
					return fmt.Errorf("支出已创建但收据上传失败: %w", err)
				}
				fmt.Printf("收据已上传: id=%d\n", res.File.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "支出日期 YYYY-MM-DD")
	cmd.Flags().UintVar(&propertyID, "property", 0, "房产 id")
	cmd.Flags().StringVar(&provider, "provider", "", "服务商名称")
	cmd.Flags().Float64Var(&amount, "amount", 0, "金额")
	cmd.Flags().StringVar(&category, "category", "", "类别名称，须与服务端类别表一致")
	cmd.Flags().StringVar(&comments, "comments", "", "备注")
	cmd.Flags().StringVar(&receiptPath, "receipt", "", "收据文件路径")
	return cmd
}

// resolveCategory 按名称（不区分大小写）在服务端类别表中查找类别 id。
// 名称为空时返回 0，让表单校验给出统一的错误文案。
func resolveCategory(ctx context.Context, client *apiclient.Client, name string) (uint, error) {
	if strings.TrimSpace(name) == "" {
		return 0, nil
	}
	categories, err := client.ListCategories(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c.ID, nil
		}
	}
	return 0, fmt.Errorf("未知的类别: %s", name)
}

func listPropertiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "properties",
		Short: "列出全部房产",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			properties, err := apiclient.NewClient(serverURL).ListProperties(ctx)
			if err != nil {
				return err
			}
			for _, p := range properties {
				fmt.Printf("%d\t%s, %s %s %s\n", p.ID, p.Address, p.City, p.State, p.ZipCode)
			}
			return nil
		},
	}
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "列出全部支出类别",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			categories, err := apiclient.NewClient(serverURL).ListCategories(ctx)
			if err != nil {
				return err
			}
			for _, c := range categories {
				fmt.Printf("%d\t%s\n", c.ID, c.Name)
			}
			return nil
		},
	}
}

func listFilesCmd() *cobra.Command {
	var expenseID uint
	var download uint
	cmd := &cobra.Command{
		Use:   "files",
		Short: "列出或下载收据文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := apiclient.NewClient(serverURL)

			if download > 0 {
				rc, err := client.DownloadReceipt(ctx, download)
				if err != nil {
					return err
				}
				defer rc.Close()
				_, err = io.Copy(os.Stdout, rc)
				return err
			}

			var eid *uint
			if expenseID > 0 {
				eid = &expenseID
			}
			files, err := client.ListReceipts(ctx, eid)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Printf("%d\t%s\t%d bytes\t%s\n", f.ID, f.OriginalFilename, f.FileSize, f.MimeType)
			}
			return nil
		},
	}
	cmd.Flags().UintVar(&expenseID, "expense", 0, "按支出 id 过滤")
	cmd.Flags().UintVar(&download, "download", 0, "下载指定 id 的收据到标准输出")
	return cmd
}
