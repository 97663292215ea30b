package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"study-assistant-be/internal/dto"
	"study-assistant-be/internal/service"

	"github.com/spf13/cobra"
)

func assistantsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assistants",
		Short: "List assistants with their document and chunk counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.container.AssistantService.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println(faint("no assistants yet"))
			}
			for _, as := range list {
				status := boldGreen(as.Status)
				if as.Status != "ready" {
					status = yellow(as.Status)
				}
				fmt.Printf("%s  %s  %d documents, %d chunks\n", boldCyan(as.Name), status, as.Documents, as.Chunks)
			}
			return nil
		},
	}
}

func createCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> <file>...",
		Short: "Create an assistant from local files",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readLocal(args[1:])
			if err != nil {
				return err
			}
			res, err := a.container.AssistantService.Create(cmd.Context(), &dto.CreateAssistantRequest{Name: args[0]}, files)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s with %d documents\n", boldGreen("created"), boldCyan(res.Name), res.Documents)
			return nil
		},
	}
}

func addCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <file>...",
		Short: "Add documents to an assistant",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readLocal(args[1:])
			if err != nil {
				return err
			}
			res, err := a.container.AssistantService.AddDocuments(cmd.Context(), args[0], files)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", boldGreen("added"), strings.Join(res.Added, ", "))
			if len(res.Duplicates) > 0 {
				fmt.Printf("%s %s\n", yellow("skipped duplicates"), strings.Join(res.Duplicates, ", "))
			}
			return nil
		},
	}
}

func deleteCmd(a *app) *cobra.Command {
	var document string
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an assistant, or one of its documents with --document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if document != "" {
				if err := a.container.AssistantService.DeleteDocument(cmd.Context(), args[0], document); err != nil {
					return err
				}
				fmt.Printf("%s %s from %s\n", boldGreen("deleted"), document, boldCyan(args[0]))
				return nil
			}
			if err := a.container.AssistantService.Delete(cmd.Context(), "", args[0]); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", boldGreen("deleted"), boldCyan(args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&document, "document", "", "filename to delete instead of the whole assistant")
	return cmd
}

func talkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "talk <assistant>",
		Short: "Chat with an assistant",
		Long: `Start an interactive conversation. Besides plain questions it understands:
  /reset                 forget the conversation
  /sources               list every cited file
  /show <turn> <file>    print the fragments a file contributed to a turn
  /exit                  quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.container.SessionService.Start()
			if err != nil {
				return err
			}
			defer a.container.SessionService.End(sess.SessionID)
			return repl(cmd, a.container.ChatService, sess.SessionID, args[0])
		},
	}
}

func repl(cmd *cobra.Command, chat service.IChatService, sessionID, assistant string) error {
	ctx := cmd.Context()
	fmt.Printf("Talking to %s. Type /exit to quit.\n\n", boldCyan(assistant))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)

		switch {
		case line == "/exit":
			return nil

		case line == "/reset":
			if err := chat.Reset(ctx, sessionID, assistant); err != nil {
				printErr(err)
				continue
			}
			fmt.Println(faint("conversation cleared"))

		case line == "/sources":
			res, err := chat.Sources(ctx, sessionID, assistant)
			if err != nil {
				printErr(err)
				continue
			}
			printSources(res.Sources)

		case len(fields) > 0 && fields[0] == "/show":
			if len(fields) != 3 {
				fmt.Println(yellow("usage: /show <turn> <file>"))
				continue
			}
			turn, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println(yellow("turn must be a number"))
				continue
			}
			res, err := chat.ShowFragments(ctx, sessionID, assistant, turn, fields[2])
			if err != nil {
				printErr(err)
				continue
			}
			for i, f := range res.Fragments {
				fmt.Printf("%s\n%s\n\n", boldCyan(fmt.Sprintf("[%d] %s", i+1, f.Filename)), f.Content)
			}
			_ = chat.CloseDisplay(ctx, sessionID, assistant)

		default:
			res, err := chat.Send(ctx, sessionID, assistant, &dto.SendChatRequest{Query: line})
			if err != nil {
				printErr(err)
				continue
			}
			if res.Turn == nil {
				fmt.Println(yellow(res.Outcome))
				continue
			}
			fmt.Printf("%s %s\n", boldCyan("Assistant:"), res.Turn.Answer)
			printSources(res.Turn.Sources)
			fmt.Printf("%s\n\n", faint(fmt.Sprintf("turn %d", res.Turn.Index)))
		}
	}
}

func printSources(groups []*dto.SourceGroupResponse) {
	for _, g := range groups {
		fmt.Printf("  %s %s (%d)\n", faint("source"), g.Filename, len(g.Fragments))
	}
}

func printErr(err error) {
	fmt.Println(red(err.Error()))
}

func readLocal(paths []string) ([]dto.UploadedFile, error) {
	files := make([]dto.UploadedFile, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, dto.UploadedFile{Filename: filepath.Base(p), Content: content})
	}
	return files, nil
}
