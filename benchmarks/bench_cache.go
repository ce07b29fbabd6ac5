package benchmarks

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	mdbxgo "github.com/erigontech/mdbx-go/mdbx"
	"github.com/tecbot/gorocksdb"
	bolt "go.etcd.io/bbolt"

	"github.com/Giulio2002/biseek"
)

// Cached benchmark corpus directory
const benchCacheDir = "testdata/benchfiles"

// benchStep is the value stride of every generated corpus: element i holds
// i*benchStep, so v+1 is guaranteed absent for any stored v.
const benchStep = 7

var (
	cacheMu   sync.Mutex
	flatFiles = make(map[int]string)
	mdbxEnvs  = make(map[int]*mdbxgo.Env)
	boltDBs   = make(map[int]*bolt.DB)
	rocksDBs  = make(map[int]*gorocksdb.DB)
)

// getCachedFlatFile returns the path of a sorted flat file with size
// elements, creating it if needed. Files are kept in testdata/benchfiles/
// to speed up subsequent runs; clear with: rm -rf benchmarks/testdata/benchfiles/
func getCachedFlatFile(b *testing.B, size int) string {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if path, ok := flatFiles[size]; ok {
		return path
	}

	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}

	path := filepath.Join(benchCacheDir, fmt.Sprintf("flat_%d.bin", size))
	if !fileExists(path) {
		b.Logf("Creating cached flat file with %d elements...", size)
		if err := biseek.WriteSequence(path, int64(size), benchStep); err != nil {
			b.Fatal(err)
		}
	} else {
		b.Logf("Using cached flat file with %d elements", size)
	}

	flatFiles[size] = path
	return path
}

// sampleTargets returns a deterministic mix of present and absent values
// spread across a corpus of size elements.
func sampleTargets(size int) []uint64 {
	n := 64
	if size < n {
		n = size
	}
	stride := size / n
	if stride == 0 {
		stride = 1
	}
	targets := make([]uint64, 0, 2*n)
	for i := 0; i < size; i += stride {
		v := uint64(i) * benchStep
		targets = append(targets, v, v+1)
	}
	return targets
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// getCachedMdbxEnv returns an mdbx environment holding the same ordered
// values as the flat file of that size, creating and populating it if
// needed. Keys are the big-endian values so B-tree order matches numeric
// order; each value maps to its element index.
func getCachedMdbxEnv(b *testing.B, size int) *mdbxgo.Env {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if env, ok := mdbxEnvs[size]; ok {
		return env
	}

	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}

	path := filepath.Join(benchCacheDir, fmt.Sprintf("kv_%d_mdbx.db", size))
	exists := fileExists(path)

	runtime.LockOSThread()
	env, err := mdbxgo.NewEnv(mdbxgo.Label("bench"))
	if err != nil {
		runtime.UnlockOSThread()
		b.Fatal(err)
	}
	env.SetOption(mdbxgo.OptMaxDB, 10)
	env.SetGeometry(-1, -1, 1<<32, -1, -1, 4096) // 4GB max
	if err := env.Open(path, mdbxgo.NoSubdir|mdbxgo.NoMetaSync|mdbxgo.WriteMap, 0644); err != nil {
		runtime.UnlockOSThread()
		b.Fatal(err)
	}
	runtime.UnlockOSThread()

	if !exists {
		b.Logf("Creating cached mdbx store with %d values...", size)
		populateMdbx(b, env, size)
	} else {
		b.Logf("Using cached mdbx store with %d values", size)
	}

	mdbxEnvs[size] = env
	return env
}

func populateMdbx(b *testing.B, env *mdbxgo.Env, size int) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	txn, err := env.BeginTxn(nil, 0)
	if err != nil {
		b.Fatal(err)
	}
	dbi, err := txn.OpenDBI("bench", mdbxgo.Create, nil, nil)
	if err != nil {
		b.Fatal(err)
	}

	batchSize := 100_000
	key := make([]byte, 8)
	val := make([]byte, 8)

	for i := 0; i < size; i++ {
		binary.BigEndian.PutUint64(key, uint64(i)*benchStep)
		binary.BigEndian.PutUint64(val, uint64(i))

		if err := txn.Put(dbi, key, val, mdbxgo.Upsert); err != nil {
			b.Fatal(err)
		}

		if (i+1)%batchSize == 0 {
			if _, err := txn.Commit(); err != nil {
				b.Fatal(err)
			}
			txn, err = env.BeginTxn(nil, 0)
			if err != nil {
				b.Fatal(err)
			}
		}
	}

	if _, err := txn.Commit(); err != nil {
		b.Fatal(err)
	}
}

// getCachedBoltDB returns a BoltDB store holding the same ordered values
// as the flat file of that size, creating and populating it if needed.
func getCachedBoltDB(b *testing.B, size int) *bolt.DB {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if db, ok := boltDBs[size]; ok {
		return db
	}

	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}

	path := filepath.Join(benchCacheDir, fmt.Sprintf("kv_%d_bolt.db", size))
	exists := fileExists(path)

	db, err := bolt.Open(path, 0644, &bolt.Options{
		NoSync:         true,
		NoFreelistSync: true,
	})
	if err != nil {
		b.Fatal(err)
	}

	if !exists {
		b.Logf("Creating cached BoltDB store with %d values...", size)
		populateBolt(b, db, size)
	} else {
		b.Logf("Using cached BoltDB store with %d values", size)
	}

	boltDBs[size] = db
	return db
}

func populateBolt(b *testing.B, db *bolt.DB, size int) {
	batchSize := 100_000
	key := make([]byte, 8)
	val := make([]byte, 8)

	for written := 0; written < size; written += batchSize {
		end := written + batchSize
		if end > size {
			end = size
		}
		err := db.Update(func(tx *bolt.Tx) error {
			bucket, err := tx.CreateBucketIfNotExists([]byte("bench"))
			if err != nil {
				return err
			}
			for i := written; i < end; i++ {
				binary.BigEndian.PutUint64(key, uint64(i)*benchStep)
				binary.BigEndian.PutUint64(val, uint64(i))
				if err := bucket.Put(key, val); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}

// getCachedRocksDB returns a RocksDB store holding the same ordered values
// as the flat file of that size, creating and populating it if needed.
func getCachedRocksDB(b *testing.B, size int) *gorocksdb.DB {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if db, ok := rocksDBs[size]; ok {
		return db
	}

	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}

	path := filepath.Join(benchCacheDir, fmt.Sprintf("kv_%d_rocks.db", size))
	exists := fileExists(path)

	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	opts.SetWriteBufferSize(64 * 1024 * 1024) // 64MB write buffer
	opts.SetMaxWriteBufferNumber(3)
	opts.SetTargetFileSizeBase(64 * 1024 * 1024)

	db, err := gorocksdb.OpenDb(opts, path)
	if err != nil {
		b.Fatal(err)
	}

	if !exists {
		b.Logf("Creating cached RocksDB store with %d values...", size)
		populateRocks(b, db, size)
	} else {
		b.Logf("Using cached RocksDB store with %d values", size)
	}

	rocksDBs[size] = db
	return db
}

func populateRocks(b *testing.B, db *gorocksdb.DB, size int) {
	wo := gorocksdb.NewDefaultWriteOptions()
	defer wo.Destroy()

	batch := gorocksdb.NewWriteBatch()
	defer batch.Destroy()

	batchSize := 100_000
	key := make([]byte, 8)
	val := make([]byte, 8)

	for i := 0; i < size; i++ {
		binary.BigEndian.PutUint64(key, uint64(i)*benchStep)
		binary.BigEndian.PutUint64(val, uint64(i))

		batch.Put(key, val)

		if (i+1)%batchSize == 0 {
			if err := db.Write(wo, batch); err != nil {
				b.Fatal(err)
			}
			batch.Clear()
		}
	}

	if batch.Count() > 0 {
		if err := db.Write(wo, batch); err != nil {
			b.Fatal(err)
		}
	}
}

// CleanupBenchCache closes all cached stores. Call after benchmarks
// complete; the on-disk corpora stay for the next run.
func CleanupBenchCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	for _, env := range mdbxEnvs {
		env.Close()
	}
	for _, db := range boltDBs {
		db.Close()
	}
	for _, db := range rocksDBs {
		db.Close()
	}
	flatFiles = make(map[int]string)
	mdbxEnvs = make(map[int]*mdbxgo.Env)
	boltDBs = make(map[int]*bolt.DB)
	rocksDBs = make(map[int]*gorocksdb.DB)
}

// DeleteBenchCache removes all cached corpus files.
func DeleteBenchCache() error {
	return os.RemoveAll(benchCacheDir)
}
