package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/teemow/gsuiteadmin/internal/config"
	"github.com/teemow/gsuiteadmin/internal/dispatch"
	"github.com/teemow/gsuiteadmin/internal/server"
	"github.com/teemow/gsuiteadmin/internal/tools/google_tools"
)

var categoryTitles = map[string]string{
	"users":    "User Tools",
	"groups":   "Group Tools",
	"orgunits": "Organizational Unit Tools",
	"devices":  "Device Tools",
	"reports":  "Report Tools",
	"security": "Security Tools",
}

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the tool registry and outputs its documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	registry, err := documentationRegistry()
	if err != nil {
		return err
	}

	markdown := generateToolsMarkdown(registry.All())

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

// documentationRegistry registers every tool, including those with side
// effects, against a context without credentials. Handlers never run.
func documentationRegistry() (*dispatch.Registry, error) {
	accounts, err := config.NewAccounts(nil)
	if err != nil {
		return nil, err
	}
	sc := server.NewServerContext(context.Background(), nil, accounts)
	defer func() {
		_ = sc.Shutdown()
	}()

	registry := dispatch.NewRegistry()
	if err := google_tools.RegisterAdminTools(registry, sc, false); err != nil {
		return nil, err
	}
	return registry, nil
}

func generateToolsMarkdown(tools []*dispatch.ToolDescriptor) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running gsuiteadmin as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	toolsByCategory := make(map[string][]*dispatch.ToolDescriptor)
	for _, t := range tools {
		title := categoryTitle(t.Category)
		toolsByCategory[title] = append(toolsByCategory[title], t)
	}

	sb.WriteString("## Table of Contents\n\n")
	categories := make([]string, 0, len(toolsByCategory))
	for category := range toolsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", category, anchor))
	}
	sb.WriteString("\n")

	sb.WriteString("## Acting Account\n\n")
	sb.WriteString("Every tool requires a `user_id` argument naming the configured administrator account to act as:\n\n")
	sb.WriteString("- **Authorization:** Run `gsuiteadmin auth <email>` once per account\n")
	sb.WriteString("- **Scopes:** A call fails with `InsufficientScope` when the account was not granted the scopes listed below\n")
	sb.WriteString("- **Confirmation:** Destructive calls must also pass `confirm: true`\n\n")

	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Tool.Name < categoryTools[j].Tool.Name
		})

		sb.WriteString(fmt.Sprintf("## %s\n\n", category))

		for _, t := range categoryTools {
			sb.WriteString(generateToolMarkdown(t))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func categoryTitle(category string) string {
	if title, ok := categoryTitles[category]; ok {
		return title
	}
	return "Other"
}

func generateToolMarkdown(desc *dispatch.ToolDescriptor) string {
	var sb strings.Builder
	tool := desc.Tool

	sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))

	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	mode := "read-only"
	if !desc.ReadOnly {
		mode = "modifies data"
	}
	sb.WriteString(fmt.Sprintf("**Mode:** %s", mode))
	if desc.Confirm != nil {
		sb.WriteString(", may require `confirm`")
	}
	sb.WriteString("\n\n")

	if len(desc.RequiredScopes) > 0 {
		sb.WriteString("**Scopes:**\n")
		for _, s := range desc.RequiredScopes {
			sb.WriteString(fmt.Sprintf("- `%s`\n", s))
		}
		sb.WriteString("\n")
	}

	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")
		writeArguments(&sb, tool.InputSchema)
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeArguments(sb *strings.Builder, schema mcp.ToolInputSchema) {
	propNames := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		propNames = append(propNames, name)
	}
	sort.Strings(propNames)

	for _, name := range propNames {
		propMap, ok := schema.Properties[name].(map[string]any)
		if !ok {
			continue
		}

		requiredStr := "optional"
		if contains(schema.Required, name) {
			requiredStr = "required"
		}

		sb.WriteString(fmt.Sprintf("- `%s` (%s, %s): ", name, getPropertyType(propMap), requiredStr))
		if desc, ok := propMap["description"].(string); ok {
			sb.WriteString(desc)
		} else {
			sb.WriteString(fmt.Sprintf("%s parameter", getPropertyType(propMap)))
		}
		if values := enumValues(propMap); len(values) > 0 {
			sb.WriteString(fmt.Sprintf(" One of: `%s`.", strings.Join(values, "`, `")))
		}
		sb.WriteString("\n")
	}
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

func enumValues(prop map[string]any) []string {
	switch v := prop["enum"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprint(e))
		}
		return out
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
