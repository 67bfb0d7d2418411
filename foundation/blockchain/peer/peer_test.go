package peer_test

import (
	"testing"

	"github.com/iridium/blockchain/foundation/blockchain/peer"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		peers []peer.Peer
	}

	tt := []table{
		{
			name:  "basic",
			peers: []peer.Peer{{Host: "host3"}, {Host: "host1"}, {Host: "host2"}},
		},
	}

	t.Log("Given the need to maintain a set of known peers.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				ps := peer.NewPeerSet()

				for _, p := range tst.peers {
					if !ps.Add(p) {
						t.Fatalf("\t%s\tTest %d:\tShould be able to add peer %s.", failed, testID, p.Host)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould be able to add peers.", success, testID)

				if ps.Add(tst.peers[0]) {
					t.Fatalf("\t%s\tTest %d:\tShould not add the same peer twice.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould not add the same peer twice.", success, testID)

				peers := ps.Copy("")
				if len(peers) != len(tst.peers) {
					t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, len(peers))
					t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, len(tst.peers))
					t.Fatalf("\t%s\tTest %d:\tShould get back the right peers.", failed, testID)
				}
				if peers[0].Host != "host1" || peers[2].Host != "host3" {
					t.Fatalf("\t%s\tTest %d:\tShould get back the peers sorted: %v", failed, testID, peers)
				}
				t.Logf("\t%s\tTest %d:\tShould get back the peers sorted.", success, testID)

				peers = ps.Copy("http://host2/")
				if len(peers) != len(tst.peers)-1 {
					t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, len(peers))
					t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, len(tst.peers)-1)
					t.Fatalf("\t%s\tTest %d:\tShould exclude the specified host.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould exclude the specified host.", success, testID)

				ps.Remove(peer.New("host1"))
				if ps.Len() != len(tst.peers)-1 {
					t.Fatalf("\t%s\tTest %d:\tShould be able to remove a peer.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to remove a peer.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}
