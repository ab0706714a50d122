package main

import (
	"bufio"
	"flag"
	"net"
	"os"
	"time"

	"github.com/YanningMaoMao/15440-P4/config"
	"github.com/YanningMaoMao/15440-P4/controller"
	pbmessage "github.com/YanningMaoMao/15440-P4/grpc/proto-files/message"
	"github.com/YanningMaoMao/15440-P4/repository/database"
	"github.com/YanningMaoMao/15440-P4/repository/messaging"
	"github.com/YanningMaoMao/15440-P4/service"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

// Manual end-to-end scenario: an in-process coordinator drives two
// overlapping commits against already running participants a, b, c, d.
// The second commit reuses a:1.jpg and must abort.
func main() {
	port := flag.String("port", "5000", "coordinator port")
	peers := flag.String("peers", "a=127.0.0.1:5001,b=127.0.0.1:5002,c=127.0.0.1:5003,d=127.0.0.1:5004", "participant addresses")
	img1 := flag.String("img1", "1.jpg", "first composite payload")
	img2 := flag.String("img2", "2.jpg", "second composite payload")
	flag.Parse()

	cfg := config.NewConfig()
	cfg.Port = *port
	cfg.Peers = config.ParsePeers(*peers)

	log.Println("Initializing coordinator...")

	wal, err := database.NewCommitLog(cfg.LogDir)
	if err != nil {
		log.Fatalln("Could not create commit log: ", err)
	}

	peerSet := messaging.NewPeerSet(service.CoordinatorName, cfg.Peers, cfg.SendTimeout)

	coordinator := service.NewTPCCoordinator(peerSet, wal, &service.TPCCoordinatorConfig{
		PhaseOneTimeout: cfg.PhaseOneTimeout,
		PhaseTwoTimeout: cfg.PhaseTwoTimeout,
		RecoverPoll:     cfg.RecoverPoll,
	})

	lis, err := net.Listen("tcp", "127.0.0.1:"+cfg.Port)
	if err != nil {
		log.Fatalln("Failed to start listening: ", err)
	}

	grpcServer := grpc.NewServer()
	pbmessage.RegisterMessagingServer(grpcServer, controller.NewCommitServer(coordinator, nil))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalln("Failed to start serving: ", err)
		}
	}()

	if err := peerSet.Connect(); err != nil {
		log.Fatalln("Failed to connect to peers: ", err)
	}

	if err := coordinator.Recover(); err != nil {
		log.Fatalln("Could not recover state: ", err)
	}

	input := bufio.NewScanner(os.Stdin)

	log.Println("This test will:")
	log.Println("1. Commit composites/1.jpg from a:1.jpg, b:3.jpg, c:6.jpg")
	log.Println("2. Commit composites/2.jpg from a:1.jpg, b:4.jpg, d:carnegie.jpg")
	log.Println()
	log.Println("The second commit reuses a:1.jpg and must abort.")

	log.Println("Press enter to start the test")
	input.Scan()

	startCommit("composites/1.jpg", *img1, []string{"a:1.jpg", "b:3.jpg", "c:6.jpg"}, coordinator)

	time.Sleep(1100 * time.Millisecond)

	startCommit("composites/2.jpg", *img2, []string{"a:1.jpg", "b:4.jpg", "d:carnegie.jpg"}, coordinator)

	log.Println("Press enter to check the results")
	input.Scan()

	check("composites/1.jpg", true)
	check("composites/2.jpg", false)
}

func startCommit(fileName string, imgPath string, sources []string, coordinator service.Coordinator) {
	log.Printf("Trying to commit %v from %v\n", fileName, sources)

	img, err := os.ReadFile(imgPath)
	if err != nil {
		log.Printf("Could not read %v, committing placeholder bytes\n", imgPath)
		img = []byte(fileName)
	}

	if err := coordinator.StartCommit(fileName, img, sources); err != nil {
		log.Printf("Could not commit %v :: %v\n", fileName, err)
	}
}

func check(fileName string, shouldExist bool) {
	_, err := os.Stat(fileName)
	exists := err == nil

	if exists == shouldExist {
		log.Printf("OK: %v exists=%v\n", fileName, exists)
	} else {
		log.Printf("FAIL: %v exists=%v, expected %v\n", fileName, exists, shouldExist)
	}
}
