package main

import (
	"bufio"
	"net"
	"os"
	"strings"

	"github.com/YanningMaoMao/15440-P4/config"
	"github.com/YanningMaoMao/15440-P4/controller"
	pbmessage "github.com/YanningMaoMao/15440-P4/grpc/proto-files/message"
	"github.com/YanningMaoMao/15440-P4/metrics"
	"github.com/YanningMaoMao/15440-P4/repository/database"
	"github.com/YanningMaoMao/15440-P4/repository/messaging"
	"github.com/YanningMaoMao/15440-P4/service"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

const localhost = "127.0.0.1:"

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	root := &cobra.Command{
		Use:   "collage",
		Short: "Two phase commit over contributed collage images",
	}

	root.AddCommand(newCoordinatorCommand(), newParticipantCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newCoordinatorCommand() *cobra.Command {
	var peers string

	cmd := &cobra.Command{
		Use:   "coordinator <port>",
		Short: "Run the commit coordinator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			cfg.Port = args[0]
			cfg.NodeID = service.CoordinatorName
			cfg.Peers = config.ParsePeers(peers)

			runCoordinator(cfg)
			return nil
		},
	}

	cmd.Flags().StringVar(&peers, "peers", "", `participant addresses as comma separated "id=host:port" pairs`)

	return cmd
}

func newParticipantCommand() *cobra.Command {
	var server string
	var autoApprove bool

	cmd := &cobra.Command{
		Use:   "participant <port> <node_id>",
		Short: "Run a participant node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			cfg.Port = args[0]
			cfg.NodeID = args[1]
			cfg.Peers = map[string]string{service.CoordinatorName: server}

			runParticipant(cfg, autoApprove)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", localhost+"5000", "coordinator address")
	cmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "approve every commit query without asking")

	return cmd
}

func runCoordinator(cfg *config.Config) {
	done := make(chan bool)

	log.Println("Initializing commit log...")

	wal, err := database.NewCommitLog(cfg.LogDir)
	if err != nil {
		log.Fatalln("Could not create commit log: ", err)
	}

	log.Println("Initializing coordinator service...")

	peerSet := messaging.NewPeerSet(cfg.NodeID, cfg.Peers, cfg.SendTimeout)

	coordinatorService := service.NewTPCCoordinator(peerSet, wal, &service.TPCCoordinatorConfig{
		PhaseOneTimeout: cfg.PhaseOneTimeout,
		PhaseTwoTimeout: cfg.PhaseTwoTimeout,
		RecoverPoll:     cfg.RecoverPoll,
	})

	commitServer := controller.NewCommitServer(coordinatorService, nil)

	serveMessaging(cfg.Port, commitServer)

	if err := peerSet.Connect(); err != nil {
		log.Fatalln("Failed to connect to peers: ", err)
	}

	metrics.Serve(cfg.MetricsAddr)

	log.Println("Recovering last state...")

	if err := coordinatorService.Recover(); err != nil {
		log.Fatalln("Could not recover state: ", err)
	}

	go commitLoop(coordinatorService)

	<-done
}

func runParticipant(cfg *config.Config, autoApprove bool) {
	done := make(chan bool)

	log.Println("Initializing lock log...")

	wal, err := database.NewLockLog(cfg.LogDir)
	if err != nil {
		log.Fatalln("Could not create lock log: ", err)
	}

	log.Println("Initializing participant service...")

	peerSet := messaging.NewPeerSet(cfg.NodeID, cfg.Peers, cfg.SendTimeout)

	var approver service.Approver = service.NewConsoleApprover()
	if autoApprove {
		approver = service.StaticApprover(true)
	}

	participantService := service.NewTPCParticipant(cfg.NodeID, peerSet, wal, approver, &service.TPCParticipantConfig{
		RecoverPoll: cfg.RecoverPoll,
	})

	commitServer := controller.NewCommitServer(nil, participantService)

	serveMessaging(cfg.Port, commitServer)

	if err := peerSet.Connect(); err != nil {
		log.Fatalln("Failed to connect to coordinator: ", err)
	}

	metrics.Serve(cfg.MetricsAddr)

	log.Println("Recovering last state...")

	if err := participantService.Recover(); err != nil {
		log.Fatalln("Could not recover state: ", err)
	}

	<-done
}

func serveMessaging(port string, commitServer *controller.CommitServer) {
	log.Println("Getting listener on: ", port)

	lis, err := net.Listen("tcp", localhost+port)
	if err != nil {
		log.Fatalln("Failed to start listening: ", err)
	}

	log.Println("Starting server...")

	grpcServer := grpc.NewServer()
	pbmessage.RegisterMessagingServer(grpcServer, commitServer)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalln("Failed to start serving: ", err)
		}
	}()
}

// commitLoop reads commit requests from stdin:
//
//	commit <composite> <image-path> <node:file> [<node:file> ...]
//
// Success is observable only by the composite appearing on disk.
func commitLoop(coordinator service.Coordinator) {
	input := bufio.NewScanner(os.Stdin)

	for input.Scan() {
		fields := strings.Fields(input.Text())

		if len(fields) == 0 {
			continue
		}

		if fields[0] != "commit" || len(fields) < 4 {
			log.Errorln("Usage: commit <composite> <image-path> <node:file> ...")
			continue
		}

		img, err := os.ReadFile(fields[2])
		if err != nil {
			log.Errorln("Could not read image: ", err)
			continue
		}

		if err := coordinator.StartCommit(fields[1], img, fields[3:]); err != nil {
			log.Errorln("Refusing commit: ", err)
		}
	}
}
