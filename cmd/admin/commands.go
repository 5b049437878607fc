package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"qufit/backend/internal/config"
	"qufit/backend/internal/models"
	"qufit/backend/internal/roomlock"
	"qufit/backend/internal/search"
	"qufit/backend/internal/storage"
	"qufit/backend/internal/token"
	"qufit/backend/internal/videoroom"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	cfg *config.Config

	memberNickname      string
	memberGender        string
	memberHobbies       []string
	memberPersonalities []string
	listPage            int
	listSize            int

	rootCmd = &cobra.Command{
		Use:           "admin",
		Short:         "Operator tooling for the qufit video room backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv()
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStorage()
			if err != nil {
				return err
			}
			if err := s.AutoMigrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}

	memberCmd = &cobra.Command{
		Use:   "member",
		Short: "Manage members",
	}
	memberAddCmd = &cobra.Command{
		Use:   "add <member_id>",
		Short: "Create or replace a member profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStorage()
			if err != nil {
				return err
			}
			return addMember(cmd.Context(), s, cmd.OutOrStdout(), args[0])
		},
	}

	roomCmd = &cobra.Command{
		Use:   "room",
		Short: "Inspect and manage rooms",
	}
	roomListCmd = &cobra.Command{
		Use:   "list",
		Short: "List joinable rooms, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStorage()
			if err != nil {
				return err
			}
			return listRooms(cmd.Context(), videoroom.NewQueryService(s), cmd.OutOrStdout(), listPage, listSize)
		},
	}
	roomDeleteCmd = &cobra.Command{
		Use:   "delete <room_id>",
		Short: "Delete a room and its participants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStorage()
			if err != nil {
				return err
			}
			locker, err := openLocker(cmd.Context())
			if err != nil {
				return err
			}
			// Token issuance is never reached by DeleteRoom.
			manager := videoroom.NewManager(s, locker, nil)
			if err := manager.DeleteRoom(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Room %s has been deleted.\n", args[0])
			return nil
		},
	}

	reindexCmd = &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the room search index from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStorage()
			if err != nil {
				return err
			}
			client, err := search.NewClient(cfg.Search)
			if err != nil {
				return err
			}
			indexer := search.NewRoomIndexer(client, cfg.Search.RoomIndex)
			if err := indexer.EnsureIndex(cmd.Context()); err != nil {
				return err
			}
			return reindex(cmd.Context(), s, indexer, cmd.OutOrStdout())
		},
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Inspect join tokens",
	}
	tokenVerifyCmd = &cobra.Command{
		Use:   "verify <token>",
		Short: "Check a join token against the configured LiveKit key pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, err := token.NewIssuer(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret, cfg.TokenTTL)
			if err != nil {
				return err
			}
			return verifyToken(issuer, cmd.OutOrStdout(), args[0])
		},
	}
)

func init() {
	memberAddCmd.Flags().StringVar(&memberNickname, "nickname", "", "display name")
	memberAddCmd.Flags().StringVar(&memberGender, "gender", "", "male or female")
	memberAddCmd.Flags().StringSliceVar(&memberHobbies, "hobbies", nil, "comma separated hobby tags")
	memberAddCmd.Flags().StringSliceVar(&memberPersonalities, "personalities", nil, "comma separated personality tags")
	_ = memberAddCmd.MarkFlagRequired("gender")
	memberCmd.AddCommand(memberAddCmd)

	roomListCmd.Flags().IntVar(&listPage, "page", 0, "zero-based page number")
	roomListCmd.Flags().IntVar(&listSize, "size", config.DefaultPageSize, "page size")
	roomCmd.AddCommand(roomListCmd, roomDeleteCmd)

	tokenCmd.AddCommand(tokenVerifyCmd)

	rootCmd.AddCommand(migrateCmd, memberCmd, roomCmd, reindexCmd, tokenCmd)
}

func openStorage() (*storage.Service, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	// No Redis needed: admin mutations are not broadcast.
	return storage.NewStorageService(db, nil), nil
}

// openLocker uses the same lock backend as the API so admin deletes serialize with it.
func openLocker(ctx context.Context) (roomlock.Locker, error) {
	if cfg.LockBackend != config.LockBackendRedis {
		return roomlock.NewLocal(), nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return roomlock.NewRedis(rdb), nil
}

func addMember(ctx context.Context, s storage.Storage, out io.Writer, memberID string) error {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return fmt.Errorf("member id is required")
	}
	gender, err := models.ParseGender(memberGender)
	if err != nil {
		return err
	}
	member := &models.Member{
		ID:            memberID,
		Nickname:      memberNickname,
		Gender:        gender,
		Hobbies:       memberHobbies,
		Personalities: memberPersonalities,
	}
	if err := s.SaveMember(ctx, member); err != nil {
		return err
	}
	fmt.Fprintf(out, "Member %s saved.\n", member.ID)
	return nil
}

func listRooms(ctx context.Context, q *videoroom.QueryService, out io.Writer, page, size int) error {
	list, err := q.ListRooms(ctx, page, size)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROOM ID\tNAME\tOCCUPANCY\tCREATED")
	for _, r := range list.Rooms {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\n", r.ID, r.Name, r.Occupancy(), r.MaxParticipants, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "page %d of %d, %d rooms\n", list.Page.CurrentPage+1, list.Page.TotalPages, list.Page.TotalElements)
	return nil
}

// roomReindexer is the part of search.RoomIndexer reindex needs.
type roomReindexer interface {
	Reindex(ctx context.Context, rooms []models.Room) (int, error)
}

// reindex pushes every room, of any status, to the index one page at a time.
func reindex(ctx context.Context, s storage.Storage, ix roomReindexer, out io.Writer) error {
	total := 0
	for _, status := range []models.RoomStatus{models.RoomStatusReady, models.RoomStatusActive} {
		for page := 0; ; page++ {
			rooms, _, err := s.FindRoomsByStatus(ctx, status, models.Page{Number: page, Size: config.MaxPageSize})
			if err != nil {
				return err
			}
			if len(rooms) == 0 {
				break
			}
			n, err := ix.Reindex(ctx, rooms)
			if err != nil {
				return err
			}
			total += n
			if len(rooms) < config.MaxPageSize {
				break
			}
		}
	}
	fmt.Fprintf(out, "Indexed %d rooms.\n", total)
	return nil
}

func verifyToken(issuer *token.Issuer, out io.Writer, raw string) error {
	claims, err := issuer.Verify(raw)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "identity: %s\nroom: %s\nexpires: %s\n",
		claims.Identity(), claims.Video.Room, claims.ExpiresAt.Time.Format("2006-01-02 15:04:05 MST"))
	return nil
}
