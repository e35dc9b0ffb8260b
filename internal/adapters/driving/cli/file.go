package cli

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tether/internal/core/domain"
)

var fileCmd = &cobra.Command{
	Use:     "file",
	Aliases: []string{"files"},
	Short:   "Manage files recorded in folders",
}

var fileAddCmd = &cobra.Command{
	Use:   "add <url>...",
	Short: "Record remote files in a folder",
	Long: `Check that a linked account can read each URL and record it in a folder.

Files added without --description are downloaded to a scratch directory and
captioned by the configured summarizer. The command waits until every job,
including captioning, has finished.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFileAdd,
}

var fileSummarizeCmd = &cobra.Command{
	Use:   "summarize <file-id>...",
	Short: "Regenerate the caption of recorded files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFileSummarize,
}

var fileListCmd = &cobra.Command{
	Use:     "list <folder-id>",
	Aliases: []string{"ls"},
	Short:   "List the files in a folder",
	Args:    cobra.ExactArgs(1),
	RunE:    runFileList,
}

var fileRemoveCmd = &cobra.Command{
	Use:     "remove <file-id>",
	Aliases: []string{"rm"},
	Short:   "Forget a recorded file",
	Args:    cobra.ExactArgs(1),
	RunE:    runFileRemove,
}

// Flags for file add and file summarize.
var (
	fileFolder      int64
	fileDescription string
	fileName        string
	filePriority    int
)

func init() {
	fileAddCmd.Flags().Int64VarP(&fileFolder, "folder", "f", 0, "Folder ID to record the files in (required)")
	fileAddCmd.Flags().StringVarP(&fileDescription, "description", "d", "", "Description to store instead of generating one")
	fileAddCmd.Flags().StringVar(&fileName, "name", "", "Name to record instead of the remote file name")
	fileAddCmd.Flags().IntVarP(&filePriority, "priority", "p", domain.DefaultJobPriority, "Job priority, lower runs sooner")
	_ = fileAddCmd.MarkFlagRequired("folder")

	fileSummarizeCmd.Flags().IntVarP(&filePriority, "priority", "p", domain.DefaultJobPriority, "Job priority, lower runs sooner")

	fileCmd.AddCommand(fileAddCmd)
	fileCmd.AddCommand(fileSummarizeCmd)
	fileCmd.AddCommand(fileListCmd)
	fileCmd.AddCommand(fileRemoveCmd)
	rootCmd.AddCommand(fileCmd)
}

func runFileAdd(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	if projectStore == nil {
		return errors.New("project store not configured")
	}
	if fileName != "" && len(args) > 1 {
		return errors.New("--name can only be used with a single URL")
	}

	ctx := commandContext(cmd)
	if _, err := projectStore.GetFolder(ctx, fileFolder); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("folder %d does not exist", fileFolder)
		}
		return fmt.Errorf("failed to look up folder: %w", err)
	}

	jobs := make([]domain.Job, 0, len(args))
	for _, url := range args {
		jobs = append(jobs, domain.Job{
			Function:    domain.JobAddFile,
			Priority:    filePriority,
			URL:         url,
			FolderID:    fileFolder,
			Description: fileDescription,
			Name:        fileName,
		})
	}
	return runJobs(cmd, jobs)
}

func runFileSummarize(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	jobs := make([]domain.Job, 0, len(args))
	for _, arg := range args {
		id, err := parseID("file", arg)
		if err != nil {
			return err
		}
		jobs = append(jobs, domain.Job{Function: domain.JobSummarize, Priority: filePriority, FileID: id})
	}
	return runJobs(cmd, jobs)
}

// runJobs starts the worker, queues jobs and reports every result once the
// queue drains. It fails if any job failed.
func runJobs(cmd *cobra.Command, jobs []domain.Job) error {
	ctx := commandContext(cmd)
	results.reset()

	ingestionService.Start(ctx)
	defer ingestionService.Stop()

	for _, job := range jobs {
		if _, err := ingestionService.Enqueue(job); err != nil {
			return fmt.Errorf("failed to queue %s: %w", jobTarget(job), err)
		}
	}
	if err := ingestionService.WaitIdle(ctx); err != nil {
		return err
	}

	failed := 0
	for _, res := range results.drain() {
		if !res.Succeeded() {
			failed++
			cmd.Printf("FAILED  %s: %v\n", jobTarget(res.Job), res.Err)
			if errors.Is(res.Err, domain.ErrAccessDenied) {
				cmd.Println("        Link an account that can read it with 'tether account add'.")
			}
			continue
		}
		switch res.Job.Function {
		case domain.JobAddFile:
			cmd.Printf("Added   %s as file %d (%s)\n", res.Job.URL, res.FileID, formatDuration(res.EndedAt.Sub(res.StartedAt)))
		case domain.JobSummarize:
			cmd.Printf("Caption file %d: %s\n", res.FileID, res.Summary)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d job(s) failed", failed)
	}
	return nil
}

func runFileList(cmd *cobra.Command, args []string) error {
	if projectStore == nil {
		return errors.New("project store not configured")
	}

	folderID, err := parseID("folder", args[0])
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	if _, err := projectStore.GetFolder(ctx, folderID); err != nil {
		return fmt.Errorf("folder %d: %w", folderID, err)
	}
	files, err := projectStore.ListFiles(ctx, folderID)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}
	if len(files) == 0 {
		cmd.Println("No files in this folder.")
		return nil
	}

	for _, f := range files {
		cmd.Printf("[%d] %s\n", f.ID, f.Name)
		cmd.Printf("    %s\n", f.URL)
		if f.HasDescription() {
			cmd.Printf("    %s\n", f.Description)
		}
	}
	return nil
}

func runFileRemove(cmd *cobra.Command, args []string) error {
	if projectStore == nil {
		return errors.New("project store not configured")
	}

	id, err := parseID("file", args[0])
	if err != nil {
		return err
	}
	if err := projectStore.DeleteFile(commandContext(cmd), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("file %d does not exist", id)
		}
		return fmt.Errorf("failed to remove file: %w", err)
	}

	cmd.Printf("Removed file %d\n", id)
	return nil
}

func jobTarget(job domain.Job) string {
	if job.Function == domain.JobSummarize {
		return fmt.Sprintf("file %d", job.FileID)
	}
	return job.URL
}

// resultLog collects job results reported by the worker goroutine.
type resultLog struct {
	mu      sync.Mutex
	entries []domain.JobResult
}

var results = &resultLog{}

func (l *resultLog) record(res domain.JobResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, res)
}

func (l *resultLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// drain returns results in completion order and clears the log.
func (l *resultLog) drain() []domain.JobResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.entries
	l.entries = nil
	return out
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
