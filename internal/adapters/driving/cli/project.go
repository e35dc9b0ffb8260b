package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tether/internal/core/domain"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"projects"},
	Short:   "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectAdd,
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects",
	RunE:    runProjectList,
}

var folderCmd = &cobra.Command{
	Use:     "folder",
	Aliases: []string{"folders"},
	Short:   "Manage folders within a project",
}

var folderAddCmd = &cobra.Command{
	Use:   "add <project-id> <name>",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(2),
	RunE:  runFolderAdd,
}

var folderListCmd = &cobra.Command{
	Use:     "list <project-id>",
	Aliases: []string{"ls"},
	Short:   "List the folders of a project",
	Args:    cobra.ExactArgs(1),
	RunE:    runFolderList,
}

var folderParent int64

func init() {
	folderAddCmd.Flags().Int64Var(&folderParent, "parent", 0, "Parent folder ID")

	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectListCmd)
	folderCmd.AddCommand(folderAddCmd)
	folderCmd.AddCommand(folderListCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(folderCmd)
}

func runProjectAdd(cmd *cobra.Command, args []string) error {
	if projectStore == nil {
		return errors.New("project store not configured")
	}

	name := strings.TrimSpace(args[0])
	if name == "" {
		return errors.New("project name cannot be empty")
	}
	id, err := projectStore.CreateProject(commandContext(cmd), name)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	cmd.Printf("Created project %q (ID: %d)\n", name, id)
	return nil
}

func runProjectList(cmd *cobra.Command, _ []string) error {
	if projectStore == nil {
		return errors.New("project store not configured")
	}

	projects, err := projectStore.ListProjects(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}
	if len(projects) == 0 {
		cmd.Println("No projects yet.")
		return nil
	}

	for _, p := range projects {
		cmd.Printf("  %-4d %s\n", p.ID, p.Name)
	}
	return nil
}

func runFolderAdd(cmd *cobra.Command, args []string) error {
	if projectStore == nil {
		return errors.New("project store not configured")
	}

	projectID, err := parseID("project", args[0])
	if err != nil {
		return err
	}
	name := strings.TrimSpace(args[1])
	if name == "" {
		return errors.New("folder name cannot be empty")
	}

	id, err := projectStore.CreateFolder(commandContext(cmd), projectID, folderParent, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("project %d or parent folder %d does not exist", projectID, folderParent)
		}
		return fmt.Errorf("failed to create folder: %w", err)
	}

	cmd.Printf("Created folder %q (ID: %d)\n", name, id)
	return nil
}

func runFolderList(cmd *cobra.Command, args []string) error {
	if projectStore == nil {
		return errors.New("project store not configured")
	}

	projectID, err := parseID("project", args[0])
	if err != nil {
		return err
	}
	folders, err := projectStore.ListFolders(commandContext(cmd), projectID)
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}
	if len(folders) == 0 {
		cmd.Println("No folders in this project.")
		return nil
	}

	for _, f := range folders {
		if f.ParentID != 0 {
			cmd.Printf("  %-4d %s (in %d)\n", f.ID, f.Name, f.ParentID)
			continue
		}
		cmd.Printf("  %-4d %s\n", f.ID, f.Name)
	}
	return nil
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID %q", kind, s)
	}
	return id, nil
}
