package main

import (
	"fmt"
	"time"

	"github.com/modelshop/weightwatch/internal/github"
	"github.com/modelshop/weightwatch/internal/queue"
	"github.com/spf13/cobra"
)

var queueListPending bool

func init() {
	queueListCmd.Flags().BoolVar(&queueListPending, "pending", false, "Show only pending candidates")
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueAddCmd)
	queueCmd.AddCommand(queueRemoveCmd)
	queueCmd.AddCommand(queueStatusCmd)
	rootCmd.AddCommand(queueCmd)
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage the reproduction-candidate queue",
	Long: `Manage the queue of repositories with published weights and a paper
identifier, awaiting reproduction work.

Candidates enter automatically during 'ww run' or manually via
'ww queue add'.`,
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queue candidates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := mustLoadQueue()

		var filter queue.Status
		if queueListPending {
			filter = queue.StatusPending
		}

		candidates := q.List(filter)
		fmt.Printf("%-35s %-11s %-7s %-12s %s\n", "Repo", "Status", "Origin", "Added", "arXiv")
		for _, c := range candidates {
			arxiv := c.PreprintID
			if arxiv == "" {
				arxiv = "-"
			}
			fmt.Printf("%-35s %-11s %-7s %-12s %s\n",
				c.FullName, c.Status, c.Origin, c.AddedAt.Format("2006-01-02"), arxiv)
		}
		fmt.Printf("%d candidates\n", len(candidates))
		return nil
	},
}

var queueAddCmd = &cobra.Command{
	Use:   "add <owner/repo | url>",
	Short: "Manually add a repository to the queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, repo, err := github.ParseRepoURL(args[0])
		if err != nil {
			exitWithError(ExitDataError, "%v: %s", err, args[0])
		}
		fullName := owner + "/" + repo
		url := fmt.Sprintf("https://github.com/%s", fullName)

		q := mustLoadQueue()
		added, err := q.Add(fullName, url, time.Now())
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		if !added {
			fmt.Printf("%s already queued\n", fullName)
			return nil
		}
		if err := q.Save(resolveQueuePath()); err != nil {
			exitWithError(ExitDataError, "saving queue: %v", err)
		}
		fmt.Printf("queued %s\n", fullName)
		return nil
	},
}

var queueRemoveCmd = &cobra.Command{
	Use:   "remove <owner/repo>",
	Short: "Remove a repository from the queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := mustLoadQueue()
		if !q.Remove(args[0]) {
			fmt.Printf("%s not in queue\n", args[0])
			return nil
		}
		if err := q.Save(resolveQueuePath()); err != nil {
			exitWithError(ExitDataError, "saving queue: %v", err)
		}
		fmt.Printf("removed %s\n", args[0])
		return nil
	},
}

var queueStatusCmd = &cobra.Command{
	Use:   "status <owner/repo> <pending|processing|completed|skipped>",
	Short: "Update a candidate's lifecycle status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := mustLoadQueue()
		if err := q.SetStatus(args[0], args[1]); err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		if err := q.Save(resolveQueuePath()); err != nil {
			exitWithError(ExitDataError, "saving queue: %v", err)
		}
		fmt.Printf("updated %s to %s\n", args[0], args[1])
		return nil
	},
}
