package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage income and expense categories",
	}
	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := cli.Bootstrap(ctx, cli.Options{Component: applog.ComponentCLI})
			if err != nil {
				return err
			}
			defer app.Close()

			var cats []core.Category
			if typ != "" {
				t, perr := core.ParseTransactionType(typ)
				if perr != nil {
					return perr
				}
				cats, err = app.Categories.ListByType(ctx, t)
			} else {
				cats, err = app.Categories.List(ctx)
			}
			if err != nil {
				return err
			}
			renderCategories(os.Stdout, cats)
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "only income or expense categories")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	var in services.NewCategory
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a custom category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			ctx := cmd.Context()
			app, err := cli.Bootstrap(ctx, cli.Options{Component: applog.ComponentCLI})
			if err != nil {
				return err
			}
			defer app.Close()
			warnEphemeral(app.Config.DataBackend)

			c, err := app.Categories.Create(ctx, in)
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ Category %d %q (%s) created", c.ID, c.Name, c.Type)))
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Type, "type", string(core.Expense), "income or expense")
	cmd.Flags().StringVar(&in.Icon, "icon", "", "icon name")
	cmd.Flags().StringVar(&in.Color, "color", "", "hex colour, e.g. #EF4444")
	return cmd
}

func renderCategories(out io.Writer, cats []core.Category) {
	if len(cats) == 0 {
		fmt.Fprintln(out, subtleStyle.Render("No categories found. Use 'fintrack categories add' to create one."))
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("ID"),
		headerStyle.Render("Name"),
		headerStyle.Render("Type"),
		headerStyle.Render("Icon"),
		headerStyle.Render("Color"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 4), strings.Repeat("-", 20), strings.Repeat("-", 7),
		strings.Repeat("-", 12), strings.Repeat("-", 7))
	for _, c := range cats {
		name := c.Name
		if c.IsCustom {
			name += subtleStyle.Render(" (custom)")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, name, c.Type, c.Icon, c.DisplayColor())
	}
}
