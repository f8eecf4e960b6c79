// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/consensys/go-dectab/pkg/analysis"
	"github.com/consensys/go-dectab/pkg/spec"
)

// Reports bucket within the cache database.
var reportsBucket = []byte("reports")

// Analysis is a pure function of its input, so reports may be cached across
// runs.  Entries are keyed by a cryptographic hash of the normalized spec
// (its canonical YAML rendering) together with the analysis options.
func cacheKey(table *spec.Spec, opts analysis.Options) ([]byte, error) {
	bytes, err := table.ToYaml()
	if err != nil {
		return nil, err
	}
	//
	hash := sha256.New()
	hash.Write(bytes)
	fmt.Fprintf(hash, "mode=%d;minimize=%t", opts.Mode, opts.Minimize)
	//
	return hash.Sum(nil), nil
}

// Look a report up in the cache, if caching is enabled.
func cachedReport(filename string, table *spec.Spec, opts analysis.Options) (analysis.Report, bool) {
	var report analysis.Report
	//
	if filename == "" {
		return report, false
	}
	//
	key, err := cacheKey(table, opts)
	if err != nil {
		return report, false
	}
	//
	db, err := bolt.Open(filename, 0600, nil)
	if err != nil {
		log.Debugf("cache unavailable: %s", err)
		return report, false
	}
	//
	defer db.Close()
	//
	found := false
	//
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(reportsBucket)
		if bucket == nil {
			return nil
		}
		//
		if bytes := bucket.Get(key); bytes != nil {
			found = json.Unmarshal(bytes, &report) == nil
		}
		//
		return nil
	})
	//
	if err != nil || !found {
		return analysis.Report{}, false
	}
	//
	log.Debugf("cache hit for %s", table.Id)
	//
	return report, true
}

// Store a report in the cache, if caching is enabled.  Failures are logged
// and otherwise ignored; the cache is an optimisation, not a dependency.
func storeReport(filename string, table *spec.Spec, opts analysis.Options, report analysis.Report) {
	if filename == "" {
		return
	}
	//
	key, err := cacheKey(table, opts)
	if err != nil {
		return
	}
	//
	bytes, err := json.Marshal(report)
	if err != nil {
		return
	}
	//
	db, err := bolt.Open(filename, 0600, nil)
	if err != nil {
		log.Debugf("cache unavailable: %s", err)
		return
	}
	//
	defer db.Close()
	//
	err = db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(reportsBucket)
		if err != nil {
			return err
		}
		//
		return bucket.Put(key, bytes)
	})
	//
	if err != nil {
		log.Debugf("cache write failed: %s", err)
	}
}
